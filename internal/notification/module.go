// Package notification reacts to domain events: it streams them to connected
// operators over SSE and emails the operator when a cascade step fails.
package notification

import (
	"context"
	"strings"

	"eventquote_backend/internal/email"
	"eventquote_backend/internal/events"
	apphttp "eventquote_backend/internal/http"
	"eventquote_backend/internal/notification/sse"
	"eventquote_backend/platform/config"
	"eventquote_backend/platform/httpkit"
	"eventquote_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Module handles notifications triggered by domain events.
type Module struct {
	sender        email.Sender
	operatorEmail string
	sse           *sse.Service
	log           *logger.Logger
}

// New creates the notification module.
func New(sender email.Sender, cfg config.SMTPConfig, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{
		sender:        sender,
		operatorEmail: strings.TrimSpace(cfg.GetOperatorEmail()),
		sse:           sse.New(log),
		log:           log,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "notification"
}

// SSE exposes the stream hub.
func (m *Module) SSE() *sse.Service {
	return m.sse
}

// RegisterHandlers subscribes the module to the domain events it relays.
func (m *Module) RegisterHandlers(bus events.Subscriber) {
	bus.Subscribe(events.QuotationSubmitted{}.EventName(), m)
	bus.Subscribe(events.QuotationStatusChanged{}.EventName(), m)
	bus.Subscribe(events.QuotationDeleted{}.EventName(), m)
	bus.Subscribe(events.QuotationArchived{}.EventName(), m)
	bus.Subscribe(events.CascadeStepFailed{}.EventName(), m)
	bus.Subscribe(events.PipelineStageChanged{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// RegisterRoutes mounts the operator event stream.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/notifications/stream", m.sse.Handler(getUserID, getOrgID))
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.QuotationSubmitted:
		m.push(e.OrganizationID, sse.EventQuotationSubmitted, &e.QuotationID, &e.EventID, e)
	case events.QuotationStatusChanged:
		m.push(e.OrganizationID, sse.EventQuotationStatusChanged, &e.QuotationID, &e.EventID, e)
	case events.QuotationDeleted:
		m.push(e.OrganizationID, sse.EventQuotationDeleted, &e.QuotationID, &e.EventID, e)
	case events.QuotationArchived:
		m.push(e.OrganizationID, sse.EventQuotationArchived, &e.QuotationID, &e.EventID, e)
	case events.PipelineStageChanged:
		m.push(e.OrganizationID, sse.EventPipelineStageChanged, e.QuotationID, &e.EventID, e)
	case events.CascadeStepFailed:
		m.push(e.OrganizationID, sse.EventCascadeStepFailed, &e.QuotationID, nil, e)
		return m.handleCascadeStepFailed(ctx, e)
	default:
		m.log.Warn("notification module received unknown event", "event", event.EventName())
	}
	return nil
}

func (m *Module) push(orgID uuid.UUID, eventType sse.EventType, quotationID, eventID *uuid.UUID, data interface{}) {
	m.sse.PublishToOrganization(orgID, sse.Event{
		Type:        eventType,
		QuotationID: quotationID,
		EventID:     eventID,
		Data:        data,
	})
}

func (m *Module) handleCascadeStepFailed(ctx context.Context, e events.CascadeStepFailed) error {
	if m.operatorEmail == "" {
		return nil
	}

	err := m.sender.SendCascadeStepFailedEmail(ctx, m.operatorEmail, email.CascadeFailure{
		QuotationID:    e.QuotationID.String(),
		OrganizationID: e.OrganizationID.String(),
		RunID:          e.RunID.String(),
		Action:         e.Action,
		Step:           e.Step,
		Error:          e.Error,
		Attempt:        e.Attempt,
	})
	if err != nil {
		m.log.Error("failed to send cascade failure email", "runId", e.RunID, "step", e.Step, "error", err)
		return err
	}

	m.log.Info("cascade failure email sent", "runId", e.RunID, "step", e.Step)
	return nil
}

func getUserID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.GetIdentity(c)
	if identity == nil || !identity.IsAuthenticated() {
		return uuid.UUID{}, false
	}
	return identity.UserID(), true
}

func getOrgID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.GetIdentity(c)
	if identity == nil || identity.TenantID() == nil {
		return uuid.UUID{}, false
	}
	return *identity.TenantID(), true
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
