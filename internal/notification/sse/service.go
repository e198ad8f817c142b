// Package sse provides Server-Sent Events support for real-time notifications.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"

	"eventquote_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventQuotationSubmitted     EventType = "quotation_submitted"
	EventQuotationStatusChanged EventType = "quotation_status_changed"
	EventQuotationDeleted       EventType = "quotation_deleted"
	EventQuotationArchived      EventType = "quotation_archived"
	EventCascadeStepFailed      EventType = "cascade_step_failed"
	EventPipelineStageChanged   EventType = "pipeline_stage_changed"
)

// Event represents an SSE event payload
type Event struct {
	Type        EventType   `json:"type"`
	QuotationID *uuid.UUID  `json:"quotationId,omitempty"`
	EventID     *uuid.UUID  `json:"eventId,omitempty"`
	Message     string      `json:"message,omitempty"`
	Data        interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client
type client struct {
	userID uuid.UUID
	orgID  uuid.UUID
	events chan Event
}

// Service manages SSE connections and event broadcasting
type Service struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*client // orgID -> clients
	log     *logger.Logger
}

// New creates a new SSE service
func New(log *logger.Logger) *Service {
	return &Service{
		clients: make(map[uuid.UUID][]*client),
		log:     log,
	}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.orgID] = append(s.clients[c.orgID], c)
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.clients[c.orgID]
	for i, cl := range clients {
		if cl == c {
			s.clients[c.orgID] = append(clients[:i], clients[i+1:]...)
			close(c.events)
			break
		}
	}
	if len(s.clients[c.orgID]) == 0 {
		delete(s.clients, c.orgID)
	}
}

// Subscribe registers a connection and returns its event channel together
// with the function that unregisters it.
func (s *Service) Subscribe(userID, orgID uuid.UUID) (<-chan Event, func()) {
	cl := &client{
		userID: userID,
		orgID:  orgID,
		events: make(chan Event, 32),
	}
	s.addClient(cl)
	return cl.events, func() { s.removeClient(cl) }
}

// ClientCount returns the number of open connections for an organization.
func (s *Service) ClientCount(orgID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[orgID])
}

// PublishToOrganization broadcasts an event to every connection of the org.
// Slow clients drop events instead of blocking the publisher.
func (s *Service) PublishToOrganization(orgID uuid.UUID, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := s.clients[orgID]
	for _, c := range clients {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse buffer full", "userId", c.userID, "type", event.Type)
		}
	}
}

// Handler returns a Gin handler for SSE connections
func (s *Service) Handler(getUserID func(*gin.Context) (uuid.UUID, bool), getOrgID func(*gin.Context) (uuid.UUID, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		orgID, ok := getOrgID(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tenant ID is required"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		stream, unsubscribe := s.Subscribe(userID, orgID)
		defer unsubscribe()

		c.SSEvent("connected", gin.H{"userId": userID, "orgId": orgID})
		c.Writer.Flush()

		s.log.Info("sse client connected", "userId", userID, "orgId", orgID)

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				s.log.Info("sse client disconnected", "userId", userID)
				return
			case event, ok := <-stream:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close disconnects every client.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, clients := range s.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	s.clients = make(map[uuid.UUID][]*client)
}
