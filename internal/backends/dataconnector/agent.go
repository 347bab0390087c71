package dataconnector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gscho/graphql-engine/pkg/command"
)

const agentTimeout = 30 * time.Second

// agentClient talks to one connector agent over HTTP.
type agentClient struct {
	baseURL string
	http    *http.Client
}

func newAgentClient(cfg command.SourceConfiguration) (*agentClient, error) {
	if cfg.AgentURL == "" {
		return nil, fmt.Errorf("dataconnector source requires agentUrl")
	}
	u, err := url.Parse(cfg.AgentURL)
	if err != nil {
		return nil, fmt.Errorf("invalid agentUrl: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("agentUrl must be http or https, got %q", u.Scheme)
	}
	return &agentClient{
		baseURL: strings.TrimRight(cfg.AgentURL, "/"),
		http:    &http.Client{Timeout: agentTimeout},
	}, nil
}

// agentCapabilities is the agent's answer to GET /capabilities.
type agentCapabilities struct {
	Version string `json:"version"`

	Capabilities struct {
		Queries   bool `json:"queries"`
		Mutations bool `json:"mutations"`
		Functions bool `json:"functions"`
	} `json:"capabilities"`
}

// agentSchema is the agent's answer to GET /schema.
type agentSchema struct {
	Tables []struct {
		Schema string `json:"schema,omitempty"`
		Name   string `json:"name"`
		Type   string `json:"type,omitempty"`
	} `json:"tables"`

	Functions []struct {
		Schema string `json:"schema,omitempty"`
		Name   string `json:"name"`
	} `json:"functions,omitempty"`
}

func (c *agentClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("agent request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("agent %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode agent %s response: %w", path, err)
	}
	return nil
}

func (c *agentClient) capabilities(ctx context.Context) (agentCapabilities, error) {
	var caps agentCapabilities
	err := c.get(ctx, "/capabilities", &caps)
	return caps, err
}

func (c *agentClient) schema(ctx context.Context) (agentSchema, error) {
	var schema agentSchema
	err := c.get(ctx, "/schema", &schema)
	return schema, err
}
