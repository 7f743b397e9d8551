// ABOUTME: Seller contact MCP tool handlers
// ABOUTME: Implements list_contacts and update_contact
package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ContactHandlers struct {
	mgr *sync.Manager
}

func NewContactHandlers(mgr *sync.Manager) *ContactHandlers {
	return &ContactHandlers{mgr: mgr}
}

type ListContactsInput struct {
	Relationship    string `json:"relationship,omitempty" jsonschema:"Filter by tier: new, active, vip, inactive, or all"`
	Query           string `json:"query,omitempty" jsonschema:"Search username, display name, or email"`
	MailingListOnly bool   `json:"mailing_list_only,omitempty" jsonschema:"Only sellers on the mailing list"`
	Limit           int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
	Offset          int    `json:"offset,omitempty" jsonschema:"Number of results to skip"`
}

type ContactListStatsOutput struct {
	TotalContacts int `json:"total_contacts"`
	OnMailingList int `json:"on_mailing_list"`
	VIPSellers    int `json:"vip_sellers"`
}

type ListContactsOutput struct {
	Contacts []ContactOutput        `json:"contacts"`
	Total    int                    `json:"total"`
	Stats    ContactListStatsOutput `json:"stats"`
}

func (h *ContactHandlers) ListContacts(ctx context.Context, request *mcp.CallToolRequest, input ListContactsInput) (*mcp.CallToolResult, ListContactsOutput, error) {
	list, err := h.mgr.ListContacts(ctx, db.ContactFilter{
		Relationship:    input.Relationship,
		Search:          input.Query,
		MailingListOnly: input.MailingListOnly,
		Limit:           input.Limit,
		Offset:          input.Offset,
	})
	if err != nil {
		return nil, ListContactsOutput{}, fmt.Errorf("failed to list contacts: %w", err)
	}

	result := make([]ContactOutput, len(list.Contacts))
	for i := range list.Contacts {
		result[i] = contactToOutput(&list.Contacts[i])
	}

	return nil, ListContactsOutput{
		Contacts: result,
		Total:    list.Total,
		Stats: ContactListStatsOutput{
			TotalContacts: list.Stats.TotalContacts,
			OnMailingList: list.Stats.OnMailingList,
			VIPSellers:    list.Stats.VIPSellers,
		},
	}, nil
}

type UpdateContactInput struct {
	ID           string  `json:"id" jsonschema:"Contact ID (required)"`
	DisplayName  *string `json:"display_name,omitempty" jsonschema:"Display name"`
	Email        *string `json:"email,omitempty" jsonschema:"Email address"`
	Phone        *string `json:"phone,omitempty" jsonschema:"Phone number"`
	Notes        *string `json:"notes,omitempty" jsonschema:"Notes about the seller"`
	MailingList  *bool   `json:"mailing_list,omitempty" jsonschema:"Whether the seller is on the mailing list"`
	Relationship *string `json:"relationship,omitempty" jsonschema:"new, active, vip, or inactive"`
}

func (h *ContactHandlers) UpdateContact(ctx context.Context, request *mcp.CallToolRequest, input UpdateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.ID == "" {
		return nil, ContactOutput{}, fmt.Errorf("id is required")
	}

	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("invalid id: %w", err)
	}

	c, err := h.mgr.UpdateContact(ctx, id, sync.ContactPatch{
		DisplayName:  input.DisplayName,
		Email:        input.Email,
		Phone:        input.Phone,
		Notes:        input.Notes,
		MailingList:  input.MailingList,
		Relationship: input.Relationship,
	})
	if err != nil {
		return nil, ContactOutput{}, err
	}

	return nil, contactToOutput(c), nil
}
