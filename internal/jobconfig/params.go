package jobconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ParamType is the closed set of parameter types accepted in job.toml
// and workflow.toml definitions.
type ParamType string

const (
	TypeString    ParamType = "string"
	TypeInteger   ParamType = "integer"
	TypeFloat     ParamType = "float"
	TypeBoolean   ParamType = "boolean"
	TypeFile      ParamType = "file"
	TypeDirectory ParamType = "directory"
	TypeEnum      ParamType = "enum"
	TypeArray     ParamType = "array"
)

// Valid reports whether t is one of the known parameter types.
func (t ParamType) Valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeFile, TypeDirectory, TypeEnum, TypeArray:
		return true
	}
	return false
}

// ParamDefinition describes a single parameter in the definition
// language (TOML). Defaults keep their decoded TOML types: string,
// int64, float64, bool, []any, map[string]any, time.Time.
type ParamDefinition struct {
	Type       ParamType `toml:"type"`
	Default    any       `toml:"default"`
	Hint       string    `toml:"hint"`
	EnumValues []string  `toml:"enum_values,omitempty"`
}

// Validate checks a definition-language value against this definition.
func (d *ParamDefinition) Validate(value any) error {
	switch d.Type {
	case TypeString, TypeFile, TypeDirectory:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %v", value)
		}
	case TypeInteger:
		if !isInteger(value) {
			return fmt.Errorf("expected integer, got %v", value)
		}
	case TypeFloat:
		if _, ok := value.(float64); !ok && !isInteger(value) {
			return fmt.Errorf("expected float, got %v", value)
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %v", value)
		}
	case TypeEnum:
		if len(d.EnumValues) == 0 {
			return fmt.Errorf("enum type requires enum_values to be specified")
		}
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string for enum, got %v", value)
		}
		for _, allowed := range d.EnumValues {
			if s == allowed {
				return nil
			}
		}
		return fmt.Errorf("value %q not in allowed values %v", s, d.EnumValues)
	case TypeArray:
		if _, ok := value.([]any); !ok {
			return fmt.Errorf("expected array, got %v", value)
		}
	default:
		return fmt.Errorf("unknown parameter type %q", d.Type)
	}
	return nil
}

func isInteger(value any) bool {
	switch value.(type) {
	case int, int64:
		return true
	}
	return false
}

// DefaultToValue converts a definition-language scalar (TOML) into the
// value language (JSON-compatible). Date-times become RFC 3339 strings.
func DefaultToValue(def any) any {
	switch v := def.(type) {
	case string, bool, int64, float64, nil:
		return v
	case int:
		return int64(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case toml.LocalDate:
		return v.String()
	case toml.LocalTime:
		return v.String()
	case toml.LocalDateTime:
		return v.String()
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = DefaultToValue(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[k] = DefaultToValue(elem)
		}
		return out
	default:
		return fmt.Sprint(v)
	}
}

// ValueToDefault converts a value-language value (JSON) back into the
// definition language for validation. Nulls become the string "null".
func ValueToDefault(value any) any {
	switch v := value.(type) {
	case nil:
		return "null"
	case string, bool, int64, float64:
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = ValueToDefault(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[k] = ValueToDefault(elem)
		}
		return out
	default:
		return v
	}
}

// Params maps parameter names to value-language values. It is the
// in-memory form of params.json and global_params.json.
type Params map[string]any

// LoadParams reads a flat JSON object of parameter values. Numbers are
// kept as json.Number so integer parameters survive the round trip.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParamsError{Path: path, Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var params Params
	if err := dec.Decode(&params); err != nil {
		return nil, &ParamsError{Path: path, Err: err}
	}
	return params, nil
}

// SaveParams writes parameter values as pretty-printed JSON.
func SaveParams(path string, params Params) error {
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return &ParamsError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &ParamsError{Path: path, Err: err}
	}
	return nil
}

// validateParams checks params against a definition table: keys must be
// a subset of the definitions and every value must validate after
// conversion back to the definition language.
func validateParams(defs map[string]ParamDefinition, params Params) error {
	for name, value := range params {
		def, ok := defs[name]
		if !ok {
			return &ValidationError{Param: name, Reason: "unknown parameter"}
		}
		if err := def.Validate(ValueToDefault(value)); err != nil {
			return &ValidationError{Param: name, Reason: err.Error()}
		}
	}
	return nil
}

// generateDefaultParams returns the default of every definition in the
// value language.
func generateDefaultParams(defs map[string]ParamDefinition) Params {
	params := make(Params, len(defs))
	for name, def := range defs {
		params[name] = DefaultToValue(def.Default)
	}
	return params
}
