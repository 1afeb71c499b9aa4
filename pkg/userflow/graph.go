package userflow

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Edge is a single transition: in state From, Event moves the flow to To.
type Edge struct {
	From  StateID `yaml:"from"`
	Event Event   `yaml:"event"`
	To    StateID `yaml:"to"`
}

// Graph is a validated transition table. Every state/event pair without an edge is a
// deliberate no-op. The zero value is empty; use DefaultGraph, NewGraph or ParseGraph.
type Graph struct {
	edges []Edge
	index map[StateID]map[Event]StateID
}

// NewGraph validates edges and builds a graph from them.
// Each state/event pair may appear at most once.
func NewGraph(edges ...Edge) (Graph, error) {
	if len(edges) == 0 {
		return Graph{}, ErrEmptyGraph
	}

	g := Graph{
		edges: make([]Edge, 0, len(edges)),
		index: make(map[StateID]map[Event]StateID, len(allStates)),
	}
	for i, e := range edges {
		if !e.From.Valid() {
			return Graph{}, fmt.Errorf("transition[%d]: %w: %q", i, ErrUnknownState, e.From)
		}
		if !e.To.Valid() {
			return Graph{}, fmt.Errorf("transition[%d]: %w: %q", i, ErrUnknownState, e.To)
		}
		if !e.Event.Valid() {
			return Graph{}, fmt.Errorf("transition[%d]: %w: %q", i, ErrUnknownEvent, e.Event)
		}
		if _, ok := g.index[e.From][e.Event]; ok {
			return Graph{}, fmt.Errorf("transition[%d]: %w: %s+%s", i, ErrDuplicateTransition, e.From, e.Event)
		}
		if g.index[e.From] == nil {
			g.index[e.From] = make(map[Event]StateID)
		}
		g.index[e.From][e.Event] = e.To
		g.edges = append(g.edges, e)
	}
	return g, nil
}

// MustNewGraph is like NewGraph but panics on invalid input.
func MustNewGraph(edges ...Edge) Graph {
	g, err := NewGraph(edges...)
	if err != nil {
		panic(fmt.Sprintf("userflow: invalid graph: %v", err))
	}
	return g
}

// DefaultGraph returns the registration and payment lifecycle:
//
//	new_user              registration_complete -> email_not_verified
//	new_user              email_not_verified    -> email_not_verified
//	new_user              existing_user         -> existing_user
//	email_not_verified    registration_complete -> registration_complete (email must be verified)
//	email_not_verified    email_not_verified    -> email_not_verified (resend)
//	registration_complete select_product        -> product_selected
//	existing_user         email_not_verified    -> email_not_verified
//	existing_user         select_product        -> product_selected
//	product_selected      select_product        -> product_selected
//	product_selected      charge_user           -> charging
//	product_selected      payment_declined      -> payment_declined
//	charging              select_product        -> product_selected
//	charging              payment_declined      -> payment_declined
//	payment_declined      charge_user           -> charging
//	payment_declined      select_product        -> product_selected
//	logged_out            new_user              -> new_user
//	logged_out            existing_user         -> existing_user
//
// plus logout -> logged_out from every state except logged_out.
func DefaultGraph() Graph {
	return MustNewGraph(
		Edge{StateNewUser, EventRegistrationComplete, StateEmailNotVerified},
		Edge{StateNewUser, EventEmailNotVerified, StateEmailNotVerified},
		Edge{StateNewUser, EventExistingUser, StateExistingUser},
		Edge{StateNewUser, EventLogout, StateLoggedOut},

		Edge{StateEmailNotVerified, EventRegistrationComplete, StateRegistrationComplete},
		Edge{StateEmailNotVerified, EventEmailNotVerified, StateEmailNotVerified},
		Edge{StateEmailNotVerified, EventLogout, StateLoggedOut},

		Edge{StateRegistrationComplete, EventSelectProduct, StateProductSelected},
		Edge{StateRegistrationComplete, EventLogout, StateLoggedOut},

		Edge{StateExistingUser, EventEmailNotVerified, StateEmailNotVerified},
		Edge{StateExistingUser, EventSelectProduct, StateProductSelected},
		Edge{StateExistingUser, EventLogout, StateLoggedOut},

		Edge{StateProductSelected, EventSelectProduct, StateProductSelected},
		Edge{StateProductSelected, EventChargeUser, StateCharging},
		Edge{StateProductSelected, EventPaymentDeclined, StatePaymentDeclined},
		Edge{StateProductSelected, EventLogout, StateLoggedOut},

		Edge{StateCharging, EventSelectProduct, StateProductSelected},
		Edge{StateCharging, EventPaymentDeclined, StatePaymentDeclined},
		Edge{StateCharging, EventLogout, StateLoggedOut},

		Edge{StatePaymentDeclined, EventChargeUser, StateCharging},
		Edge{StatePaymentDeclined, EventSelectProduct, StateProductSelected},
		Edge{StatePaymentDeclined, EventLogout, StateLoggedOut},

		Edge{StateLoggedOut, EventNewUser, StateNewUser},
		Edge{StateLoggedOut, EventExistingUser, StateExistingUser},
	)
}

// Edges returns the transitions in the order they were declared.
func (g Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Target returns the state event leads to from state, if the graph declares one.
func (g Graph) Target(from StateID, event Event) (StateID, bool) {
	to, ok := g.index[from][event]
	return to, ok
}

// Unhandled returns the events state does not react to, in declaration order.
func (g Graph) Unhandled(state StateID) []Event {
	var out []Event
	for _, e := range allEvents {
		if _, ok := g.index[state][e]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// IsZero reports whether g has no transitions.
func (g Graph) IsZero() bool {
	return len(g.edges) == 0
}

type graphFile struct {
	Transitions []Edge `yaml:"transitions"`
}

// ParseGraph reads a graph from YAML:
//
//	transitions:
//	  - from: new_user
//	    event: registration_complete
//	    to: email_not_verified
//
// Unknown keys, states and events are rejected.
func ParseGraph(data []byte) (Graph, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file graphFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return Graph{}, ErrEmptyGraph
		}
		return Graph{}, errors.Join(ErrInvalidGraph, err)
	}
	return NewGraph(file.Transitions...)
}

// LoadGraphFile reads and parses a YAML graph from path.
func LoadGraphFile(path string) (Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Graph{}, fmt.Errorf("read graph file: %w", err)
	}
	return ParseGraph(data)
}

// MarshalYAML encodes g in the format accepted by ParseGraph.
func (g Graph) MarshalYAML() (any, error) {
	return graphFile{Transitions: g.edges}, nil
}
