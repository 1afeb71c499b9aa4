package statemachine

import (
	"fmt"
	"slices"
	"strings"
)

// Graph renders the registered transitions in the DOT language.
// The current state is highlighted, guarded edges are dashed.
func (sm *SimpleStateMachine) Graph() string {
	transitions := sm.Transitions()

	sm.mu.RLock()
	initial := sm.initialState.Name()
	current := sm.currentState.Name()
	sm.mu.RUnlock()

	type edge struct{ from, to string }
	labels := make(map[edge][]string)
	guarded := make(map[edge]bool)
	var edges []edge
	states := []string{initial}

	for _, t := range transitions {
		e := edge{t.From.Name(), t.To.Name()}
		if _, ok := labels[e]; !ok {
			edges = append(edges, e)
		}
		labels[e] = append(labels[e], t.Event.Name())
		if len(t.Guards) > 0 {
			guarded[e] = true
		}
		states = append(states, e.from, e.to)
	}

	slices.Sort(states)
	states = slices.Compact(states)

	var b strings.Builder
	b.WriteString("digraph statemachine {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=circle, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")
	b.WriteString("  __start [shape=point];\n")
	fmt.Fprintf(&b, "  __start -> %q;\n\n", initial)

	for _, s := range states {
		if s == current {
			fmt.Fprintf(&b, "  %q [shape=doublecircle, style=filled, fillcolor=\"#90ee90\"];\n", s)
			continue
		}
		fmt.Fprintf(&b, "  %q;\n", s)
	}
	b.WriteByte('\n')

	for _, e := range edges {
		attrs := fmt.Sprintf("label=%q", strings.Join(labels[e], "\n"))
		if guarded[e] {
			attrs += ", style=dashed"
		}
		fmt.Fprintf(&b, "  %q -> %q [%s];\n", e.from, e.to, attrs)
	}

	b.WriteString("}\n")
	return b.String()
}
