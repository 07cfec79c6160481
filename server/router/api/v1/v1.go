// Package v1 wires the HTTP surface: chat, direct process, inbound email
// ingest and the ingestion audit log.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/tmc/langchaingo/llms"

	"github.com/lmangall/jot/agent"
	"github.com/lmangall/jot/plugin/mailbox"
	"github.com/lmangall/jot/plugin/ratelimiter"
	"github.com/lmangall/jot/plugin/vectorstore"
	"github.com/lmangall/jot/server/auth"
	"github.com/lmangall/jot/server/profile"
	"github.com/lmangall/jot/store"
)

// APIV1Service holds the shared dependencies of every v1 handler.
type APIV1Service struct {
	Store       *store.Store
	Profile     *profile.Profile
	Secret      string
	Model       llms.Model
	Limiter     *ratelimiter.Limiter
	VectorStore *vectorstore.Store
	Mailbox     *mailbox.Client
}

func NewAPIV1Service(
	st *store.Store,
	prof *profile.Profile,
	model llms.Model,
	limiter *ratelimiter.Limiter,
	vs *vectorstore.Store,
	mb *mailbox.Client,
) *APIV1Service {
	return &APIV1Service{
		Store:       st,
		Profile:     prof,
		Secret:      prof.Secret,
		Model:       model,
		Limiter:     limiter,
		VectorStore: vs,
		Mailbox:     mb,
	}
}

// Register mounts all v1 routes.
func (s *APIV1Service) Register(e *echo.Echo) {
	s.registerAssistantRoutes(e)
	s.registerInboundMailRoutes(e)
}

// requireAuth resolves the caller from the Authorization or Cookie header.
func (s *APIV1Service) requireAuth(c *echo.Context) (*store.User, error) {
	authHeader := c.Request().Header.Get("Authorization")
	cookieHeader := c.Request().Header.Get("Cookie")
	user, err := auth.NewAuthenticator(s.Store, s.Secret).AuthenticateToUser(
		c.Request().Context(), authHeader, cookieHeader,
	)
	if err != nil || user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return user, nil
}

// buildRegistry assembles the closed tool set for one invocation: the
// standard tools plus calendar tools for users with an active calendar
// integration.
func (s *APIV1Service) buildRegistry(uc *agent.UserContext) *agent.Registry {
	registry := agent.NewRegistry(agent.StandardTools(s.Store, s.VectorStore)...)
	if uc == nil {
		return registry
	}
	for _, integration := range uc.Integrations {
		if integration.Provider == store.IntegrationProviderCalendar {
			registry.Merge(agent.CalendarTools(integration)...)
		}
	}
	return registry
}
