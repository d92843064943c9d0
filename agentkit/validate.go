// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// schemaNode is the subset of JSON Schema the generated schemas use:
// typed properties, required lists, enums, array items and nested objects.
type schemaNode struct {
	Type       string                `json:"type"`
	Properties map[string]schemaNode `json:"properties"`
	Required   []string              `json:"required"`
	Enum       []any                 `json:"enum"`
	Items      *schemaNode           `json:"items"`
}

// ValidateArguments checks raw argument JSON against a capability's input
// schema. It rejects missing required fields, mistyped fields, and fields
// not declared in the schema, reporting the offending field by name.
//
// The orchestrator calls this before dispatch; on failure the arguments
// never reach the capability's execution body.
func ValidateArguments(schema, raw json.RawMessage) error {
	if len(schema) == 0 {
		return nil
	}
	var node schemaNode
	if err := json.Unmarshal(schema, &node); err != nil {
		return &ValidationError{Message: "unreadable input schema: " + err.Error()}
	}
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return &ValidationError{Message: "arguments are not a JSON object"}
	}
	return validateObject(&node, obj, "")
}

func validateObject(node *schemaNode, obj map[string]json.RawMessage, path string) error {
	for _, req := range node.Required {
		if _, ok := obj[req]; !ok {
			return &ValidationError{Field: joinPath(path, req), Message: "required field is missing"}
		}
	}
	for name, val := range obj {
		prop, ok := node.Properties[name]
		if !ok {
			return &ValidationError{Field: joinPath(path, name), Message: "field is not part of the input schema"}
		}
		if err := validateValue(&prop, val, joinPath(path, name)); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(node *schemaNode, raw json.RawMessage, path string) error {
	switch node.Type {
	case "string":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return &ValidationError{Field: path, Message: "expected a string"}
		}
		if len(node.Enum) > 0 && !enumContains(node.Enum, s) {
			return &ValidationError{Field: path, Message: fmt.Sprintf("%q is not one of the allowed values", s)}
		}
	case "integer":
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&n); err != nil {
			return &ValidationError{Field: path, Message: "expected an integer"}
		}
		if _, err := n.Int64(); err != nil {
			return &ValidationError{Field: path, Message: "expected an integer"}
		}
	case "number":
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return &ValidationError{Field: path, Message: "expected a number"}
		}
	case "boolean":
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return &ValidationError{Field: path, Message: "expected a boolean"}
		}
	case "array":
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return &ValidationError{Field: path, Message: "expected an array"}
		}
		if node.Items != nil {
			for i, item := range items {
				if err := validateValue(node.Items, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
		}
	case "object":
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return &ValidationError{Field: path, Message: "expected an object"}
		}
		if len(node.Properties) > 0 {
			return validateObject(node, obj, path)
		}
	case "":
		// Untyped node: accept anything.
	default:
		return &ValidationError{Field: path, Message: fmt.Sprintf("unsupported schema type %q", node.Type)}
	}
	return nil
}

func enumContains(enum []any, s string) bool {
	for _, v := range enum {
		if ev, ok := v.(string); ok && ev == s {
			return true
		}
	}
	return false
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}
