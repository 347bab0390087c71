package command

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectSchemaValidate(t *testing.T) {
	schema := &ObjectSchema{Fields: []Field{
		{Name: "source", Type: TypeString, Required: true},
		{Name: "cascade", Type: TypeBoolean},
		{Name: "limit", Type: TypeInteger},
		{Name: "table", Type: TypeObject, Required: true, Object: &ObjectSchema{Fields: []Field{
			{Name: "schema", Type: TypeString},
			{Name: "name", Type: TypeString, Required: true},
		}}},
		{Name: "columns", Type: TypeArray, Elem: &Field{Name: "column", Type: TypeString}},
		{Name: "filter", Type: TypeAny},
	}}

	tests := []struct {
		name      string
		payload   string
		wantPaths []string
	}{
		{
			name:    "complete payload",
			payload: `{"source":"s","table":{"schema":"public","name":"users"},"cascade":true,"limit":5,"columns":["id"],"filter":{"id":{"_eq":1}}}`,
		},
		{
			name:    "optional fields omitted",
			payload: `{"source":"s","table":{"name":"users"}}`,
		},
		{
			name:      "missing required top-level field",
			payload:   `{"table":{"name":"users"}}`,
			wantPaths: []string{"source"},
		},
		{
			name:      "missing required nested field",
			payload:   `{"source":"s","table":{"schema":"public"}}`,
			wantPaths: []string{"table.name"},
		},
		{
			name:      "null counts as missing",
			payload:   `{"source":null,"table":{"name":"users"}}`,
			wantPaths: []string{"source"},
		},
		{
			name:      "wrong primitive type",
			payload:   `{"source":7,"table":{"name":"users"}}`,
			wantPaths: []string{"source"},
		},
		{
			name:      "wrong array element type",
			payload:   `{"source":"s","table":{"name":"users"},"columns":["id",3]}`,
			wantPaths: []string{"columns[1]"},
		},
		{
			name:      "unknown field rejected",
			payload:   `{"source":"s","table":{"name":"users"},"casade":true}`,
			wantPaths: []string{"casade"},
		},
		{
			name:      "multiple violations all reported",
			payload:   `{"cascade":"yes"}`,
			wantPaths: []string{"source", "cascade", "table"},
		},
		{
			name:      "non-object payload",
			payload:   `[1,2]`,
			wantPaths: []string{""},
		},
		{
			name:      "empty payload reports required fields",
			payload:   ``,
			wantPaths: []string{"source", "table"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := schema.Validate(json.RawMessage(tt.payload))
			var paths []string
			for _, v := range violations {
				paths = append(paths, v.Path)
			}
			assert.ElementsMatch(t, tt.wantPaths, paths)
		})
	}
}

func TestObjectSchemaAllowUnknown(t *testing.T) {
	schema := &ObjectSchema{
		Fields:       []Field{{Name: "name", Type: TypeString, Required: true}},
		AllowUnknown: true,
	}
	violations := schema.Validate(json.RawMessage(`{"name":"x","vendor_extension":true}`))
	assert.Empty(t, violations)
}
