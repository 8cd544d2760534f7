package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/journal"
	"github.com/hirosato/construction-erp/internal/domain/mcp"
)

type CreateJournalEntryTool struct {
	journal *journal.Service
}

func NewCreateJournalEntryTool(journalService *journal.Service) *CreateJournalEntryTool {
	return &CreateJournalEntryTool{journal: journalService}
}

func (t *CreateJournalEntryTool) GetName() string { return "create-journal-entry" }

func (t *CreateJournalEntryTool) GetDescription() string {
	return "Creates a Draft journal entry. Debits must equal credits within 0.01 and at least two lines are required."
}

func (t *CreateJournalEntryTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"entryNumber": str("Unique entry number, e.g. JE-2025-001"),
			"entryDate":   date("Entry date"),
			"description": str("Description of the journal entry"),
			"reference":   str("Optional external reference"),
			"lines": map[string]interface{}{
				"type":        "array",
				"description": "Journal entry lines; each line carries either a debit or a credit",
				"minItems":    2,
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"accountId":   str("Account id"),
						"debit":       amount("Debit amount"),
						"credit":      amount("Credit amount"),
						"description": str("Line description"),
					},
					"required": []string{"accountId"},
				},
			},
		},
		Required: []string{"entryNumber", "entryDate", "description", "lines"},
	}
}

func (t *CreateJournalEntryTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var req journal.CreateJournalEntryRequest
	if err := parseArgs(arguments, &req); err != nil {
		return nil, err
	}

	entry, err := t.journal.CreateJournalEntry(ctx, &req)
	if err != nil {
		return nil, err
	}
	return jsonResult("Journal entry created successfully", entry)
}

type PostJournalEntryTool struct {
	journal *journal.Service
}

func NewPostJournalEntryTool(journalService *journal.Service) *PostJournalEntryTool {
	return &PostJournalEntryTool{journal: journalService}
}

func (t *PostJournalEntryTool) GetName() string { return "post-journal-entry" }

func (t *PostJournalEntryTool) GetDescription() string {
	return "Posts a Draft journal entry, applying every line to its account balance exactly once"
}

func (t *PostJournalEntryTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type:       "object",
		Properties: map[string]interface{}{"journalEntryId": str("Id of the Draft entry")},
		Required:   []string{"journalEntryId"},
	}
}

func (t *PostJournalEntryTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		JournalEntryID string `json:"journalEntryId"`
	}
	if err := parseArgs(arguments, &args); err != nil {
		return nil, err
	}
	if args.JournalEntryID == "" {
		return nil, errors.NewValidationError("journalEntryId is required")
	}

	entry, err := t.journal.PostJournalEntry(ctx, args.JournalEntryID)
	if err != nil {
		return nil, err
	}
	return jsonResult("Journal entry posted successfully", entry)
}

type ListJournalEntriesTool struct {
	journal *journal.Service
}

func NewListJournalEntriesTool(journalService *journal.Service) *ListJournalEntriesTool {
	return &ListJournalEntriesTool{journal: journalService}
}

func (t *ListJournalEntriesTool) GetName() string { return "list-journal-entries" }

func (t *ListJournalEntriesTool) GetDescription() string {
	return "Lists journal entries newest first, optionally by status and date range"
}

func (t *ListJournalEntriesTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"status":    enum("Entry status", string(journal.Draft), string(journal.Posted)),
			"startDate": date("First entry date"),
			"endDate":   date("Last entry date"),
			"page":      integer("Page number, from 1"),
			"limit":     integer("Entries per page"),
		},
	}
}

func (t *ListJournalEntriesTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		Status    string `json:"status"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
		Page      int    `json:"page"`
		Limit     int    `json:"limit"`
	}
	if err := parseArgs(arguments, &args); err != nil {
		return nil, err
	}

	result, err := t.journal.ListJournalEntries(ctx, journal.Filter{
		Status:   journal.Status(args.Status),
		FromDate: args.StartDate,
		ToDate:   args.EndDate,
		Page:     args.Page,
		Limit:    args.Limit,
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(fmt.Sprintf("%d of %d journal entries", len(result.JournalEntries), result.TotalCount), result)
}
