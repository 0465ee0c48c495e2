package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/journey-copilot/journey-copilot/internal/persona"
	"github.com/journey-copilot/journey-copilot/internal/prompt"
)

// ErrEmptyTimeline is returned when the A/B strategy is requested before any
// event was simulated.
var ErrEmptyTimeline = errors.New("simulate at least one event first")

// Session is one user's working state: the chosen persona, the simulated
// timeline, an optional highlight override and the live AI responses.
type Session struct {
	ID        string                     `json:"id"`
	Persona   persona.Persona            `json:"persona"`
	Timeline  persona.Timeline           `json:"timeline"`
	Selected  persona.Event              `json:"selected,omitempty"`
	Override  persona.Node               `json:"override,omitempty"`
	Responses map[prompt.Category]string `json:"responses"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`

	// Version is the store revision this copy was read at or last saved as.
	Version int64 `json:"-"`
}

// New starts a session on p, or on the first persona when p is empty.
func New(p persona.Persona) (*Session, error) {
	if p == "" {
		p = persona.All[0]
	}
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %q", persona.ErrUnknownPersona, p)
	}

	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Persona:   p,
		Timeline:  persona.Timeline{},
		Responses: make(map[prompt.Category]string),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Session) Profile() (*persona.Profile, error) {
	return persona.Default().Profile(s.Persona)
}

// SwitchPersona moves the session to another persona. Any change wipes the
// timeline, selection, override and responses.
func (s *Session) SwitchPersona(p persona.Persona) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", persona.ErrUnknownPersona, p)
	}
	if p == s.Persona {
		return nil
	}
	s.Persona = p
	s.clear()
	return nil
}

// AddEvent selects an event by label and appends it to the timeline unless
// it is already there. It reports whether the timeline grew.
func (s *Session) AddEvent(label string) (persona.Event, bool, error) {
	prof, err := s.Profile()
	if err != nil {
		return "", false, err
	}
	e, err := prof.LookupEvent(label)
	if err != nil {
		return "", false, err
	}

	s.Selected = e
	added := s.Timeline.Add(e)
	s.touch()
	return e, added, nil
}

// Reset empties the timeline and drops the override and all responses. The
// persona is kept.
func (s *Session) Reset() {
	s.clear()
}

// SetOverride pins the highlight to a node of the persona's diagram.
func (s *Session) SetOverride(id string) (persona.Node, error) {
	prof, err := s.Profile()
	if err != nil {
		return "", err
	}
	n, err := prof.LookupNode(id)
	if err != nil {
		return "", err
	}
	s.Override = n
	s.touch()
	return n, nil
}

func (s *Session) ClearOverride() {
	s.Override = ""
	s.touch()
}

// Highlight is the node the diagram should emphasise right now.
func (s *Session) Highlight() persona.Node {
	return persona.Default().ResolveHighlight(s.Persona, s.Selected, s.Override)
}

// Diagram renders the persona journey with the current highlight.
func (s *Session) Diagram() (string, error) {
	prof, err := s.Profile()
	if err != nil {
		return "", err
	}
	return prof.Diagram.Mermaid(s.Highlight()), nil
}

// Response returns the live text for a category, if any.
func (s *Session) Response(c prompt.Category) (string, bool) {
	text, ok := s.Responses[c]
	return text, ok && text != ""
}

func (s *Session) clear() {
	s.Timeline = persona.Timeline{}
	s.Selected = ""
	s.Override = ""
	s.Responses = make(map[prompt.Category]string)
	s.touch()
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}
