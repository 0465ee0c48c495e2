package persona

import "strings"

// NoEventsPlaceholder stands in for an empty timeline wherever one is printed
// or sent to a model.
const NoEventsPlaceholder = "No events simulated."

// Timeline is the ordered, duplicate-free list of simulated events.
type Timeline []Event

// Add appends e unless it is already present. It reports whether the
// timeline changed.
func (t *Timeline) Add(e Event) bool {
	if t.Contains(e) {
		return false
	}
	*t = append(*t, e)
	return true
}

func (t *Timeline) Reset() {
	*t = nil
}

func (t Timeline) Contains(e Event) bool {
	for _, ev := range t {
		if ev == e {
			return true
		}
	}
	return false
}

// Join joins the labels with sep, or returns the placeholder when empty.
func (t Timeline) Join(sep string) string {
	if len(t) == 0 {
		return NoEventsPlaceholder
	}
	parts := make([]string, len(t))
	for i, e := range t {
		parts[i] = string(e)
	}
	return strings.Join(parts, sep)
}

func (t Timeline) String() string {
	return t.Join(" → ")
}
