// Package resources exposes read-only ledger views as MCP resources under erp://
package resources

import (
	"encoding/json"
	"strings"

	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/mcp"
)

const mimeJSON = "application/json"

// jsonContents renders v as the single JSON content of a resource read
func jsonContents(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.NewInternalError("failed to format resource", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []mcp.ResourceContent{{URI: uri, MimeType: mimeJSON, Text: string(data)}},
	}, nil
}

// childID returns the "{id}" of base + "/{id}", or "" when uri is base itself
func childID(base, uri string) string {
	return strings.TrimPrefix(strings.TrimPrefix(uri, base), "/")
}
