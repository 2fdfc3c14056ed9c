package audit

import (
	"time"

	id "pokevault/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers account lifecycle events kept long term.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers events relevant to security monitoring.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity that may be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	UserID    id.UserID     `json:"-"`
	Subject   string        `json:"subject,omitempty"`
	Action    string        `json:"action"`
	Reason    string        `json:"reason,omitempty"`
	Email     string        `json:"email,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	ClientIP  string        `json:"client_ip,omitempty"`
	Device    string        `json:"device,omitempty"`
}

type AuditEvent string

const (
	EventUserRegistered         AuditEvent = "user_registered"
	EventLoggedIn               AuditEvent = "logged_in"
	EventLoginFailed            AuditEvent = "login_failed"
	EventSessionSuperseded      AuditEvent = "session_superseded"
	EventLoggedOut              AuditEvent = "logged_out"
	EventTokenRefreshed         AuditEvent = "token_refreshed"
	EventPasswordResetRequested AuditEvent = "password_reset_requested"
	EventPasswordReset          AuditEvent = "password_reset"
	EventFavoriteAdded          AuditEvent = "favorite_added"
	EventFavoriteRemoved        AuditEvent = "favorite_removed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserRegistered: CategoryCompliance,
	EventPasswordReset:  CategoryCompliance,

	EventLoginFailed:            CategorySecurity,
	EventSessionSuperseded:      CategorySecurity,
	EventPasswordResetRequested: CategorySecurity,

	EventLoggedIn:        CategoryOperations,
	EventLoggedOut:       CategoryOperations,
	EventTokenRefreshed:  CategoryOperations,
	EventFavoriteAdded:   CategoryOperations,
	EventFavoriteRemoved: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// New builds an Event for action with its category filled in.
func New(action AuditEvent, userID id.UserID) Event {
	return Event{
		Category: action.Category(),
		UserID:   userID,
		Subject:  userID.String(),
		Action:   string(action),
	}
}
