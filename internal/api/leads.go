package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/nimasrn/lead-desk/internal/model"
)

const (
	OpGetLeads         = "get_leads"
	OpCreateLead       = "create_lead"
	OpUpdateLead       = "update_lead"
	OpDeleteLead       = "delete_lead"
	OpSwitchAttention  = "switch_attention"
	OpGetConversations = "get_conversations"
	OpSendMessage      = "send_message"
)

// Ack is the body of endpoints that only confirm an action.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type switchAttentionRequest struct {
	Identifier string `json:"identifier"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (c *Client) GetLeads(ctx context.Context) ([]model.Lead, error) {
	r := Get[[]model.Lead](ctx, c, OpGetLeads, c.config.Routes.GetLeads)
	return r.Data, r.Err
}

func (c *Client) CreateLead(ctx context.Context, in model.LeadInput) (model.Lead, error) {
	r := Post[model.Lead](ctx, c, OpCreateLead, c.config.Routes.Leads, in)
	return r.Data, r.Err
}

func (c *Client) UpdateLead(ctx context.Context, id int64, updates model.LeadUpdate) (model.Lead, error) {
	r := Put[model.Lead](ctx, c, OpUpdateLead, c.leadPath(id), updates)
	return r.Data, r.Err
}

func (c *Client) DeleteLead(ctx context.Context, id int64) (Ack, error) {
	r := Delete[Ack](ctx, c, OpDeleteLead, c.leadPath(id))
	return r.Data, r.Err
}

// SwitchAttention asks the service to flip the needs-attention flag of the
// lead identified by phone or id.
func (c *Client) SwitchAttention(ctx context.Context, identifier string) (Ack, error) {
	r := Post[Ack](ctx, c, OpSwitchAttention, c.config.Routes.SwitchAttention, switchAttentionRequest{Identifier: identifier})
	return r.Data, r.Err
}

func (c *Client) GetConversations(ctx context.Context, phone string) ([]model.ChatMessage, error) {
	r := Get[[]model.ChatMessage](ctx, c, OpGetConversations, c.phonePath(phone, "conversations"))
	return r.Data, r.Err
}

func (c *Client) SendMessage(ctx context.Context, phone, text string) (Ack, error) {
	r := Post[Ack](ctx, c, OpSendMessage, c.phonePath(phone, "send-message"), sendMessageRequest{Message: text})
	return r.Data, r.Err
}

func (c *Client) leadPath(id int64) string {
	return c.config.Routes.Leads + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) phonePath(phone, action string) string {
	return c.config.Routes.Leads + "/phone/" + url.PathEscape(phone) + "/" + action
}
