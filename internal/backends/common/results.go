package common

// TableInfo is one introspected table or view, as returned by
// get_source_tables.
type TableInfo struct {
	Schema string `json:"schema,omitempty"`
	Name   string `json:"name"`

	// Type is the catalog's classification, e.g. "BASE TABLE" or "VIEW".
	Type string `json:"type,omitempty"`
}

// FunctionInfo is one introspected routine, as returned by
// get_source_functions.
type FunctionInfo struct {
	Schema string `json:"schema,omitempty"`
	Name   string `json:"name"`

	// ReturnType is the catalog's name for the routine's return type.
	ReturnType string `json:"return_type,omitempty"`

	// Volatility is backend-specific, e.g. "STABLE" for PostgreSQL.
	Volatility string `json:"volatility,omitempty"`
}

// TableListing is the response body of get_source_tables.
type TableListing struct {
	Tables []TableInfo `json:"tables"`
}

// FunctionListing is the response body of get_source_functions.
type FunctionListing struct {
	Functions []FunctionInfo `json:"functions"`
}
