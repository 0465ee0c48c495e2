package persona_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/journey-copilot/journey-copilot/internal/persona"
)

var documentedHighlights = map[persona.Persona]map[persona.Event]persona.Node{
	persona.GlowSkin: {
		"Cart Abandoned": "E", "Email Opened": "H", "Email Unopened": "H", "Push Notification Ignored": "K",
		"SMS Received": "E", "Product Review Left": "D", "Wishlist Item Added": "A", "Discount Code Used": "D",
		"Social Media Shared": "D", "Return Customer": "A", "Subscription Started": "D", "Unsubscribed": "L",
	},
	persona.PulseFit: {
		"User Inactive": "E", "Push Notification Sent": "E", "Email Unopened": "H", "Workout Completed": "D",
		"App Opened": "A", "Premium Upgrade": "D", "Goal Achievement": "D", "Friend Invited": "D",
		"Progress Photo Shared": "D", "Subscription Cancelled": "L", "Support Contact": "H", "Tutorial Skipped": "E",
	},
	persona.JetQuest: {
		"Flight Searched": "A", "Booking Abandoned": "E", "Email Opened": "E", "SMS Clicked": "H",
		"Price Alert Set": "A", "Loyalty Points Earned": "D", "Review Left": "D", "Newsletter Subscribed": "H",
		"Mobile App Downloaded": "A", "Customer Service Contact": "H", "Refund Requested": "K", "Rebooking Attempt": "E",
	},
	persona.LeadSync: {
		"Trial Started": "A", "Demo Requested": "A", "Email Unopened": "E", "Feature Explored": "A",
		"Integration Attempted": "H", "Onboarding Completed": "D", "Team Member Invited": "D", "Billing Info Added": "D",
		"Support Ticket Created": "H", "Webinar Attended": "H", "Case Study Downloaded": "E", "Contract Signed": "D",
	},
}

func TestResolveHighlight_DocumentedTable(t *testing.T) {
	for p, events := range documentedHighlights {
		for e, want := range events {
			if got := persona.ResolveHighlight(p, e, ""); got != want {
				t.Errorf("%s / %s: expected node %s, got %q", p, e, want, got)
			}
		}
	}
}

func TestResolveHighlight_UnmappedEvent(t *testing.T) {
	// An event from another persona is not in GlowSkin's table
	if got := persona.ResolveHighlight(persona.GlowSkin, "Contract Signed", ""); got != "" {
		t.Errorf("expected no highlight, got %q", got)
	}
	if got := persona.ResolveHighlight(persona.GlowSkin, "Nonsense", ""); got != "" {
		t.Errorf("expected no highlight, got %q", got)
	}
	if got := persona.ResolveHighlight("Nobody", "Cart Abandoned", ""); got != "" {
		t.Errorf("expected no highlight for unknown persona, got %q", got)
	}
}

func TestResolveHighlight_OverrideWins(t *testing.T) {
	for _, p := range persona.All {
		for e := range documentedHighlights[p] {
			if got := persona.ResolveHighlight(p, e, "K"); got != "K" {
				t.Errorf("%s / %s: override ignored, got %q", p, e, got)
			}
		}
	}
	// Override also applies when the event has no mapping
	if got := persona.ResolveHighlight(persona.JetQuest, "", "B"); got != "B" {
		t.Errorf("expected override B, got %q", got)
	}
}

func TestCatalog_EveryPersonaHasTwelveMappedEvents(t *testing.T) {
	c := persona.Default()

	profiles := c.Profiles()
	if len(profiles) != 4 {
		t.Fatalf("expected 4 personas, got %d", len(profiles))
	}

	for i, prof := range profiles {
		if prof.Name != persona.All[i] {
			t.Errorf("profile %d: expected %s, got %s", i, persona.All[i], prof.Name)
		}
		if len(prof.Events) != 12 {
			t.Errorf("%s: expected 12 events, got %d", prof.Name, len(prof.Events))
		}
		for _, e := range prof.Events {
			n, ok := prof.Highlights[e]
			if !ok {
				t.Errorf("%s: event %q has no highlight", prof.Name, e)
				continue
			}
			if !prof.Diagram.Has(n) {
				t.Errorf("%s: node %s not in diagram", prof.Name, n)
			}
		}
		if prof.Summary == "" {
			t.Errorf("%s: empty summary", prof.Name)
		}
	}
}

func TestParsePersona(t *testing.T) {
	p, err := persona.ParsePersona(" glowskin ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != persona.GlowSkin {
		t.Errorf("expected GlowSkin, got %s", p)
	}

	_, err = persona.ParsePersona("Acme")
	if !errors.Is(err, persona.ErrUnknownPersona) {
		t.Errorf("expected ErrUnknownPersona, got %v", err)
	}
}

func TestProfile_LookupEventAndNode(t *testing.T) {
	prof, err := persona.Default().Profile(persona.LeadSync)
	if err != nil {
		t.Fatalf("failed to get profile: %v", err)
	}

	e, err := prof.LookupEvent("trial started")
	if err != nil || e != "Trial Started" {
		t.Errorf("expected Trial Started, got %q (%v)", e, err)
	}

	if _, err := prof.LookupEvent("Cart Abandoned"); !errors.Is(err, persona.ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}

	n, err := prof.LookupNode("k")
	if err != nil || n != "K" {
		t.Errorf("expected node K, got %q (%v)", n, err)
	}

	if _, err := prof.LookupNode("Z"); !errors.Is(err, persona.ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode, got %v", err)
	}
}

func TestLoad_RejectsDanglingHighlight(t *testing.T) {
	doc := `
personas:
  - name: GlowSkin
    summary: s
    events: [Cart Abandoned]
    highlights:
      Cart Abandoned: Z
    diagram:
      nodes:
        - {id: A, label: Start}
`
	_, err := persona.Load([]byte(doc))
	if !errors.Is(err, persona.ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode, got %v", err)
	}
}

func TestLoad_RejectsHighlightForForeignEvent(t *testing.T) {
	doc := `
personas:
  - name: GlowSkin
    summary: s
    events: [Cart Abandoned]
    highlights:
      Trial Started: A
    diagram:
      nodes:
        - {id: A, label: Start}
`
	_, err := persona.Load([]byte(doc))
	if !errors.Is(err, persona.ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestLoad_RequiresAllPersonas(t *testing.T) {
	doc := `
personas:
  - name: GlowSkin
    summary: s
    events: [Cart Abandoned]
    diagram:
      nodes:
        - {id: A, label: Start}
`
	_, err := persona.Load([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), "missing from catalog") {
		t.Errorf("expected missing persona error, got %v", err)
	}
}

func TestDiagram_MermaidHighlight(t *testing.T) {
	prof, err := persona.Default().Profile(persona.GlowSkin)
	if err != nil {
		t.Fatalf("failed to get profile: %v", err)
	}

	src := prof.Diagram.Mermaid("E")
	expectations := []string{
		"graph TD",
		"A[User Adds Items to Cart]",
		"C{Has User Purchased?}",
		"C -->|No| E",
		"classDef highlight fill:#ffcc00;",
		"class E highlight;",
	}
	for _, expected := range expectations {
		if !strings.Contains(src, expected) {
			t.Errorf("diagram missing %q\n\nGot:\n%s", expected, src)
		}
	}

	plain := prof.Diagram.Mermaid("")
	if strings.Contains(plain, "classDef") {
		t.Errorf("diagram without highlight should not define the class:\n%s", plain)
	}

	unknown := prof.Diagram.Mermaid("Z")
	if strings.Contains(unknown, "class Z") {
		t.Errorf("unknown node must not be highlighted:\n%s", unknown)
	}
}

func TestTimeline_AddIsIdempotent(t *testing.T) {
	var tl persona.Timeline

	if !tl.Add("Cart Abandoned") {
		t.Error("first add should change the timeline")
	}
	if !tl.Add("Email Opened") {
		t.Error("second distinct add should change the timeline")
	}
	if tl.Add("Cart Abandoned") {
		t.Error("duplicate add should not change the timeline")
	}

	if len(tl) != 2 || tl[0] != "Cart Abandoned" || tl[1] != "Email Opened" {
		t.Errorf("unexpected timeline: %v", tl)
	}
	if tl.Join(", ") != "Cart Abandoned, Email Opened" {
		t.Errorf("unexpected join: %q", tl.Join(", "))
	}
}

func TestTimeline_Reset(t *testing.T) {
	tl := persona.Timeline{"A", "B", "C"}
	tl.Reset()
	if len(tl) != 0 {
		t.Errorf("expected empty timeline after reset, got %v", tl)
	}
	if tl.Join(", ") != persona.NoEventsPlaceholder {
		t.Errorf("expected placeholder, got %q", tl.Join(", "))
	}

	var empty persona.Timeline
	empty.Reset()
	if len(empty) != 0 {
		t.Error("reset of empty timeline should stay empty")
	}
}
