// Package notify carries candidate events from the intake side to the
// presentation side over the /notify webhook.
package notify

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// EventType tags the Event variant.
type EventType string

const (
	TypeSurvey EventType = "survey"
	TypeEmail  EventType = "email"
)

// Field keys used in SurveyEvent.Fields.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldSummary = "summary"
)

// ErrInvalidEvent is returned by Validate.
var ErrInvalidEvent = errors.New("notify: invalid event")

// Event is a tagged union: exactly one of Survey or Email is set, matching Type.
type Event struct {
	ID     string       `json:"id"`
	Type   EventType    `json:"type"`
	Survey *SurveyEvent `json:"survey,omitempty"`
	Email  *EmailEvent  `json:"email,omitempty"`
}

// SurveyEvent carries key/value fields extracted from an eligible response.
type SurveyEvent struct {
	Fields map[string]string `json:"fields"`
	Link   string            `json:"link,omitempty"`
}

// EmailEvent carries a study-related inbound email.
type EmailEvent struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Summary string `json:"summary"`
	Reason  string `json:"reason"`
}

// NewSurveyEvent builds a survey event keyed by the response ID.
func NewSurveyEvent(responseID string, fields map[string]string, link string) Event {
	return Event{
		ID:     responseID,
		Type:   TypeSurvey,
		Survey: &SurveyEvent{Fields: fields, Link: link},
	}
}

// NewEmailEvent builds an email event with a fresh time-ordered ID.
func NewEmailEvent(e EmailEvent) Event {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Event{ID: id.String(), Type: TypeEmail, Email: &e}
}

// Validate checks that the ID is set and the payload matches the type.
func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidEvent)
	}
	switch e.Type {
	case TypeSurvey:
		if e.Survey == nil {
			return fmt.Errorf("%w: survey event without survey payload", ErrInvalidEvent)
		}
	case TypeEmail:
		if e.Email == nil {
			return fmt.Errorf("%w: email event without email payload", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	return nil
}

// Candidate returns the enrollment pair the event refers to.
func (e Event) Candidate() (email, name string) {
	switch {
	case e.Survey != nil:
		return e.Survey.Fields[FieldEmail], e.Survey.Fields[FieldName]
	case e.Email != nil:
		return e.Email.Address, e.Email.Name
	}
	return "", ""
}
