package mockapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimasrn/lead-desk/internal/api"
	"github.com/rs/zerolog/log"
)

// SetupRouter mounts every lead route under endpoint.
func SetupRouter(h *Handler, endpoint string, routes api.Routes) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request processed")
	})

	g := router.Group(endpoint)
	{
		g.GET(routes.GetLeads, h.GetLeads)
		g.POST(routes.Leads, h.CreateLead)
		g.PUT(routes.Leads+"/:id", h.UpdateLead)
		g.DELETE(routes.Leads+"/:id", h.DeleteLead)
		g.POST(routes.SwitchAttention, h.SwitchAttention)
		g.GET(routes.Leads+"/phone/:phone/conversations", h.GetConversations)
		g.POST(routes.Leads+"/phone/:phone/send-message", h.SendMessage)
		g.POST(routes.Leads+"/phone/:phone/incoming", h.ReceiveMessage)
	}

	router.GET("/health", h.HealthCheck)
	return router
}
