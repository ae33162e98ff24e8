// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package azureopenai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teradata-labs/agentrt/pkg/llm"
)

// ValidateToolSchemas validates tool schemas for Azure OpenAI compatibility
// before a request is sent, and returns one message per issue found.
func ValidateToolSchemas(tools []llm.ToolSchema) []string {
	var errors []string
	for i, tool := range tools {
		errors = append(errors, validateToolSchema(tool, i)...)
	}
	return errors
}

func validateToolSchema(tool llm.ToolSchema, index int) []string {
	var errors []string
	prefix := fmt.Sprintf("tools[%d] (%s)", index, tool.Name)

	if tool.Name == "" {
		errors = append(errors, fmt.Sprintf("%s: function name is empty", prefix))
	}
	if tool.Parameters == nil {
		errors = append(errors, fmt.Sprintf("%s: parameters is nil", prefix))
		return errors
	}

	params := tool.Parameters
	paramType, hasType := params["type"].(string)
	if !hasType {
		errors = append(errors, fmt.Sprintf("%s.parameters: missing 'type' field", prefix))
	} else if paramType != "object" {
		errors = append(errors, fmt.Sprintf("%s.parameters: type must be 'object', got '%s'", prefix, paramType))
	}

	if paramType == "object" {
		if _, hasProps := params["properties"]; !hasProps {
			errors = append(errors, fmt.Sprintf("%s.parameters: object type missing 'properties' field", prefix))
		} else if props, ok := params["properties"].(map[string]interface{}); ok {
			errors = append(errors, validateProperties(props, fmt.Sprintf("%s.parameters.properties", prefix))...)
		}
	}

	if required, hasRequired := params["required"]; hasRequired {
		if reqArr, ok := required.([]string); ok {
			if len(reqArr) == 0 {
				errors = append(errors, fmt.Sprintf("%s.parameters: has empty 'required' array (consider removing)", prefix))
			}
		} else {
			errors = append(errors, fmt.Sprintf("%s.parameters: 'required' must be string array", prefix))
		}
	}

	return errors
}

func validateProperties(props map[string]interface{}, path string) []string {
	var errors []string

	for propName, propValue := range props {
		propPath := fmt.Sprintf("%s.%s", path, propName)
		propMap, ok := propValue.(map[string]interface{})
		if !ok {
			errors = append(errors, fmt.Sprintf("%s: property is not an object", propPath))
			continue
		}

		propType, hasType := propMap["type"].(string)
		if !hasType {
			errors = append(errors, fmt.Sprintf("%s: missing 'type' field", propPath))
			continue
		}

		switch propType {
		case "object":
			if _, hasProps := propMap["properties"]; !hasProps {
				errors = append(errors, fmt.Sprintf("%s: object type missing 'properties' field", propPath))
			} else if nestedProps, ok := propMap["properties"].(map[string]interface{}); ok {
				errors = append(errors, validateProperties(nestedProps, propPath+".properties")...)
			}

		case "array":
			if _, hasItems := propMap["items"]; !hasItems {
				errors = append(errors, fmt.Sprintf("%s: array type missing 'items' field", propPath))
			} else if items, ok := propMap["items"].(map[string]interface{}); ok {
				itemType, hasItemType := items["type"].(string)
				if !hasItemType {
					errors = append(errors, fmt.Sprintf("%s.items: missing 'type' field", propPath))
				}
				if itemType == "object" {
					if itemProps, ok := items["properties"].(map[string]interface{}); ok {
						errors = append(errors, validateProperties(itemProps, propPath+".items.properties")...)
					} else {
						errors = append(errors, fmt.Sprintf("%s.items: object type missing 'properties' field", propPath))
					}
				}
			}

		case "string", "number", "integer", "boolean":
			// valid primitives, nothing further to check

		default:
			errors = append(errors, fmt.Sprintf("%s: unknown type '%s'", propPath, propType))
		}

		if enum, hasEnum := propMap["enum"]; hasEnum {
			if enumArr, ok := enum.([]interface{}); ok && len(enumArr) == 0 {
				errors = append(errors, fmt.Sprintf("%s: has empty 'enum' array (consider removing)", propPath))
			}
		}
		if required, hasRequired := propMap["required"]; hasRequired {
			if reqArr, ok := required.([]interface{}); ok && len(reqArr) == 0 {
				errors = append(errors, fmt.Sprintf("%s: has empty 'required' array (consider removing)", propPath))
			}
		}
	}

	return errors
}

// DumpToolSchemasJSON pretty-prints tool schemas for debugging.
func DumpToolSchemasJSON(tools []llm.ToolSchema) string {
	var sb strings.Builder
	sb.WriteString("Tool Schemas (JSON):\n")
	sb.WriteString("====================\n\n")

	for i, tool := range tools {
		sb.WriteString(fmt.Sprintf("Tool [%d]: %s\n", i, tool.Name))
		sb.WriteString("---\n")
		if tool.Parameters != nil {
			jsonBytes, err := json.MarshalIndent(tool.Parameters, "", "  ")
			if err != nil {
				sb.WriteString(fmt.Sprintf("ERROR marshaling parameters: %v\n", err))
			} else {
				sb.WriteString(string(jsonBytes))
				sb.WriteString("\n")
			}
		} else {
			sb.WriteString("(parameters is nil)\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// SanitizeToolSchemas strips fields known to trip Azure OpenAI's stricter
// validation: empty required/enum arrays and empty string defaults.
func SanitizeToolSchemas(tools []llm.ToolSchema) []llm.ToolSchema {
	sanitized := make([]llm.ToolSchema, len(tools))
	for i, tool := range tools {
		sanitized[i] = llm.ToolSchema{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  sanitizeParameters(tool.Parameters),
		}
	}
	return sanitized
}

func sanitizeParameters(params map[string]interface{}) map[string]interface{} {
	if params == nil {
		return nil
	}
	result := make(map[string]interface{})
	for key, value := range params {
		if arr, ok := value.([]interface{}); ok && len(arr) == 0 {
			continue
		}
		if arr, ok := value.([]string); ok && len(arr) == 0 {
			continue
		}
		if key == "properties" {
			if props, ok := value.(map[string]interface{}); ok {
				result[key] = sanitizeProperties(props)
				continue
			}
		}
		if key == "items" {
			if items, ok := value.(map[string]interface{}); ok {
				result[key] = sanitizeParameters(items)
				continue
			}
		}
		if key == "default" {
			if str, ok := value.(string); ok && str == "" {
				continue
			}
		}
		result[key] = value
	}
	return result
}

func sanitizeProperties(props map[string]interface{}) map[string]interface{} {
	if props == nil {
		return make(map[string]interface{})
	}
	result := make(map[string]interface{})
	for propName, propValue := range props {
		propMap, ok := propValue.(map[string]interface{})
		if !ok {
			result[propName] = propValue
			continue
		}
		sanitizedProp := make(map[string]interface{})
		for key, value := range propMap {
			if arr, ok := value.([]interface{}); ok && len(arr) == 0 {
				continue
			}
			if arr, ok := value.([]string); ok && len(arr) == 0 {
				continue
			}
			if key == "properties" {
				if nestedProps, ok := value.(map[string]interface{}); ok {
					sanitizedProp[key] = sanitizeProperties(nestedProps)
					continue
				}
			}
			if key == "items" {
				if items, ok := value.(map[string]interface{}); ok {
					sanitizedProp[key] = sanitizeParameters(items)
					continue
				}
			}
			if key == "default" {
				if str, ok := value.(string); ok && str == "" {
					continue
				}
			}
			sanitizedProp[key] = value
		}
		result[propName] = sanitizedProp
	}
	return result
}
