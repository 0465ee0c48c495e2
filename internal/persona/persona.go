package persona

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownPersona = errors.New("unknown persona")
	ErrUnknownEvent   = errors.New("unknown event")
	ErrUnknownNode    = errors.New("unknown journey node")
)

// Persona is one of the fixed customer archetypes.
type Persona string

const (
	GlowSkin Persona = "GlowSkin"
	PulseFit Persona = "PulseFit"
	JetQuest Persona = "JetQuest"
	LeadSync Persona = "LeadSync"
)

// All lists the personas in display order.
var All = []Persona{GlowSkin, PulseFit, JetQuest, LeadSync}

func (p Persona) Valid() bool {
	switch p {
	case GlowSkin, PulseFit, JetQuest, LeadSync:
		return true
	}
	return false
}

func (p Persona) String() string {
	return string(p)
}

// ParsePersona matches a persona name case-insensitively.
func ParsePersona(s string) (Persona, error) {
	s = strings.TrimSpace(s)
	for _, p := range All {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPersona, s)
}

// Event is a simulated behavioral event label.
type Event string

// Node identifies a step in a journey diagram.
type Node string

type NodeKind string

const (
	KindStep     NodeKind = "step"
	KindDecision NodeKind = "decision"
)

type DiagramNode struct {
	ID    Node     `yaml:"id"`
	Label string   `yaml:"label"`
	Kind  NodeKind `yaml:"kind"`
}

type Edge struct {
	From  Node   `yaml:"from"`
	To    Node   `yaml:"to"`
	Label string `yaml:"label"`
}

// Profile is the static definition of a persona.
type Profile struct {
	Name       Persona        `yaml:"name"`
	Summary    string         `yaml:"summary"`
	Events     []Event        `yaml:"events"`
	Highlights map[Event]Node `yaml:"highlights"`
	Diagram    Diagram        `yaml:"diagram"`
}

func (p *Profile) HasEvent(e Event) bool {
	for _, ev := range p.Events {
		if ev == e {
			return true
		}
	}
	return false
}

// LookupEvent finds an event by label, ignoring case and surrounding space.
func (p *Profile) LookupEvent(label string) (Event, error) {
	label = strings.TrimSpace(label)
	for _, ev := range p.Events {
		if strings.EqualFold(label, string(ev)) {
			return ev, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not a %s event", ErrUnknownEvent, label, p.Name)
}

// LookupNode validates a node id against the persona's diagram.
func (p *Profile) LookupNode(id string) (Node, error) {
	n := Node(strings.ToUpper(strings.TrimSpace(id)))
	if !p.Diagram.Has(n) {
		return "", fmt.Errorf("%w: %q is not in the %s journey", ErrUnknownNode, id, p.Name)
	}
	return n, nil
}
