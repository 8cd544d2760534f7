// Package tools exposes the ledger, invoicing and insight services as MCP tools
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/mcp"
)

// parseArgs decodes tool arguments. Absent arguments decode as an empty object.
func parseArgs(arguments json.RawMessage, out interface{}) error {
	if len(arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(arguments, out); err != nil {
		return errors.NewInvalidInputError("Error parsing arguments", err)
	}
	return nil
}

// jsonResult renders v as indented JSON after a one-line summary
func jsonResult(summary string, v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.NewInternalError("failed to format response", err)
	}
	return mcp.TextResult(fmt.Sprintf("%s:\n%s", summary, data)), nil
}

func str(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func date(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description + " in YYYY-MM-DD format",
		"pattern":     "^[0-9]{4}-[0-9]{2}-[0-9]{2}$",
	}
}

func amount(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        []string{"string", "number"},
		"description": description + " as a decimal, e.g. \"1250.00\"",
	}
}

func enum(description string, values ...string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description, "enum": values}
}

func integer(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}
