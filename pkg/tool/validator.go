package tool

import (
	"encoding/json"
	"fmt"
	"math"
)

// ValidateArguments checks raw JSON tool arguments against a definition's
// parameter schema: the payload must be an object, required fields must be
// present, and known fields must match their declared types. Fields not in
// the schema pass through untouched; the backend stays the final authority.
func ValidateArguments(raw string, schema ObjectField) error {
	if raw == "" {
		raw = "{}"
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	return validateObject(params, schema)
}

func validateObject(params map[string]any, schema ObjectField) error {
	for _, field := range schema.Required {
		if _, exists := params[field]; !exists {
			return fmt.Errorf("missing required field: %s", field)
		}
	}

	for key, value := range params {
		fieldSchema, ok := schema.lookupProperty(key)
		if !ok {
			continue
		}
		if err := validateValue(value, fieldSchema); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}
	return nil
}

func validateValue(value any, schema Field) error {
	switch node := schema.(type) {
	case StringField:
		s, ok := value.(string)
		if !ok {
			return typeMismatch(node, value)
		}
		if len(node.Enum) > 0 && !contains(node.Enum, s) {
			return fmt.Errorf("value %q is not one of the allowed values", s)
		}
	case IntegerField:
		if !isInteger(value) {
			return typeMismatch(node, value)
		}
	case NumberField:
		if !isNumber(value) {
			return typeMismatch(node, value)
		}
	case BooleanField:
		if _, ok := value.(bool); !ok {
			return typeMismatch(node, value)
		}
	case ObjectField:
		nested, ok := value.(map[string]any)
		if !ok {
			return typeMismatch(node, value)
		}
		return validateObject(nested, node)
	case ArrayField:
		items, ok := value.([]any)
		if !ok {
			return typeMismatch(node, value)
		}
		if node.Items == nil {
			return nil
		}
		for i, item := range items {
			if err := validateValue(item, node.Items); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unsupported schema node %T", schema)
	}
	return nil
}

func typeMismatch(schema Field, value any) error {
	return fmt.Errorf("expected %s but got %T", schema.Type(), value)
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float32, float64:
		return true
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return math.Trunc(float64(v)) == float64(v)
	case float64:
		return math.Trunc(v) == v
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}
