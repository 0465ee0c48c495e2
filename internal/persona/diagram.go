package persona

import (
	"fmt"
	"strings"
)

const highlightClass = "classDef highlight fill:#ffcc00;"

// Diagram is a journey flowchart.
type Diagram struct {
	Nodes []DiagramNode `yaml:"nodes"`
	Edges []Edge        `yaml:"edges"`
}

func (d Diagram) Has(n Node) bool {
	_, ok := d.Node(n)
	return ok
}

func (d Diagram) Node(n Node) (DiagramNode, bool) {
	for _, dn := range d.Nodes {
		if dn.ID == n {
			return dn, true
		}
	}
	return DiagramNode{}, false
}

func (d Diagram) validate() error {
	if len(d.Nodes) == 0 {
		return fmt.Errorf("diagram has no nodes")
	}
	seen := make(map[Node]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == "" {
			return fmt.Errorf("diagram node without id")
		}
		if seen[n.ID] {
			return fmt.Errorf("diagram node %s defined twice", n.ID)
		}
		switch n.Kind {
		case "", KindStep, KindDecision:
		default:
			return fmt.Errorf("diagram node %s has unknown kind %q", n.ID, n.Kind)
		}
		seen[n.ID] = true
	}
	for _, e := range d.Edges {
		if !seen[e.From] || !seen[e.To] {
			return fmt.Errorf("%w: edge %s -> %s", ErrUnknownNode, e.From, e.To)
		}
	}
	return nil
}

// Mermaid renders the diagram as Mermaid flowchart source. The highlight
// node, when present in the diagram, gets the highlight class.
func (d Diagram) Mermaid(highlight Node) string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	for _, n := range d.Nodes {
		if n.Kind == KindDecision {
			fmt.Fprintf(&b, "    %s{%s}\n", n.ID, n.Label)
		} else {
			fmt.Fprintf(&b, "    %s[%s]\n", n.ID, n.Label)
		}
	}

	for _, e := range d.Edges {
		if e.Label != "" {
			fmt.Fprintf(&b, "    %s -->|%s| %s\n", e.From, e.Label, e.To)
		} else {
			fmt.Fprintf(&b, "    %s --> %s\n", e.From, e.To)
		}
	}

	if highlight != "" && d.Has(highlight) {
		b.WriteString("    " + highlightClass + "\n")
		fmt.Fprintf(&b, "    class %s highlight;\n", highlight)
	}

	return b.String()
}
