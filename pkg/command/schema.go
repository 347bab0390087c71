package command

import (
	"encoding/json"
	"fmt"
)

// FieldType enumerates the structural types a payload field may carry.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeBoolean FieldType = "boolean"
	TypeInteger FieldType = "integer"
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"

	// TypeAny accepts any JSON value. Used for backend-specific fragments the
	// registry publishes but does not interpret (e.g. permission filters).
	TypeAny FieldType = "any"
)

// Field describes one payload field: its name, structural type and whether
// the caller must supply it. Object fields nest a schema; array fields
// describe their element.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Doc      string    `json:"doc,omitempty"`

	// Object is set when Type is TypeObject.
	Object *ObjectSchema `json:"object,omitempty"`

	// Elem is set when Type is TypeArray.
	Elem *Field `json:"elem,omitempty"`
}

// ObjectSchema is the structural description of a command payload. It is
// published alongside the command name for client-side validation and
// documentation generation.
type ObjectSchema struct {
	Fields []Field `json:"fields"`

	// AllowUnknown permits fields the schema does not name. Left false,
	// unknown fields are violations.
	AllowUnknown bool `json:"allowUnknown,omitempty"`
}

// Violation records one schema violation at a dotted field path.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a raw payload against the schema and returns every
// violation found. A nil or empty payload is treated as an empty object.
func (s *ObjectSchema) Validate(raw json.RawMessage) []Violation {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	return s.validate(raw, "")
}

func (s *ObjectSchema) validate(raw json.RawMessage, path string) []Violation {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return []Violation{{Path: path, Message: "expected an object"}}
	}

	var violations []Violation
	known := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		known[f.Name] = true
		fieldPath := joinPath(path, f.Name)
		val, present := fields[f.Name]
		if !present || string(val) == "null" {
			if f.Required {
				violations = append(violations, Violation{Path: fieldPath, Message: "required field is missing"})
			}
			continue
		}
		violations = append(violations, checkValue(f, val, fieldPath)...)
	}

	if !s.AllowUnknown {
		for name := range fields {
			if !known[name] {
				violations = append(violations, Violation{Path: joinPath(path, name), Message: "unknown field"})
			}
		}
	}

	return violations
}

func checkValue(f Field, raw json.RawMessage, path string) []Violation {
	switch f.Type {
	case TypeAny:
		return nil
	case TypeString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return []Violation{{Path: path, Message: "expected a string"}}
		}
	case TypeBoolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return []Violation{{Path: path, Message: "expected a boolean"}}
		}
	case TypeInteger:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return []Violation{{Path: path, Message: "expected an integer"}}
		}
	case TypeObject:
		if f.Object == nil {
			// Schema names an object without structure; accept any object.
			var m map[string]json.RawMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				return []Violation{{Path: path, Message: "expected an object"}}
			}
			return nil
		}
		return f.Object.validate(raw, path)
	case TypeArray:
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return []Violation{{Path: path, Message: "expected an array"}}
		}
		if f.Elem == nil {
			return nil
		}
		var violations []Violation
		for i, e := range elems {
			violations = append(violations, checkValue(*f.Elem, e, fmt.Sprintf("%s[%d]", path, i))...)
		}
		return violations
	default:
		return []Violation{{Path: path, Message: fmt.Sprintf("schema declares unsupported type %q", f.Type)}}
	}
	return nil
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}
