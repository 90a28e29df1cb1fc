package mockapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nimasrn/lead-desk/internal/api"
	"github.com/nimasrn/lead-desk/internal/model"
	"github.com/rs/zerolog/log"
)

// Handler exposes a Service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type messageRequest struct {
	Message string `json:"message"`
}

type identifierRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

// fail writes the error body the client reads its message from.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrLeadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Lead not found"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	}
}

func leadID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "id must be an integer"})
		return 0, false
	}
	return id, true
}

func (h *Handler) GetLeads(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Leads())
}

func (h *Handler) CreateLead(c *gin.Context) {
	var in model.LeadInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, err)
		return
	}
	lead, err := h.svc.Create(in)
	if err != nil {
		fail(c, err)
		return
	}
	log.Info().Int64("id", lead.ID).Str("phone", lead.LeadPhone).Msg("Lead created")
	c.JSON(http.StatusCreated, lead)
}

func (h *Handler) UpdateLead(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var updates model.LeadUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		fail(c, err)
		return
	}
	lead, err := h.svc.Update(id, updates)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *Handler) DeleteLead(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.Ack{Success: true})
}

func (h *Handler) SwitchAttention(c *gin.Context) {
	var req identifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	lead, err := h.svc.SwitchAttention(req.Identifier)
	if err != nil {
		fail(c, err)
		return
	}
	log.Info().Int64("id", lead.ID).Bool("needs_attention", lead.NeedsAttention).Msg("Attention switched")
	c.JSON(http.StatusOK, api.Ack{Success: true})
}

func (h *Handler) GetConversations(c *gin.Context) {
	msgs, err := h.svc.Conversations(c.Param("phone"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// SendMessage answers success=false instead of an error status when the
// message cannot be recorded, the way the real service does.
func (h *Handler) SendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	msg, err := h.svc.Send(c.Request.Context(), c.Param("phone"), req.Message)
	if err != nil {
		log.Warn().Err(err).Str("phone", c.Param("phone")).Msg("Message not sent")
		c.JSON(http.StatusOK, api.Ack{Success: false, Message: err.Error()})
		return
	}
	log.Info().Int64("message_id", msg.MessageID).Str("phone", msg.LeadPhone).Msg("Message sent")
	c.JSON(http.StatusOK, api.Ack{Success: true})
}

// ReceiveMessage injects an incoming message. It exists for development.
func (h *Handler) ReceiveMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	msg, err := h.svc.Receive(c.Request.Context(), c.Param("phone"), req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"instance_id": h.svc.InstanceID(),
		"leads":       len(h.svc.Leads()),
	})
}
