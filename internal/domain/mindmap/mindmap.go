package mindmap

import (
	"fmt"

	"github.com/google/uuid"
)

// State is the lifecycle state of a node.
type State string

const (
	// StateContinue marks a node that has or awaits children.
	StateContinue State = "CONTINUE"
	// StateEnd marks a leaf answerable directly.
	StateEnd State = "END"
)

// Node is one question in the decomposition tree. Nodes live in a flat
// arena keyed by id; children are referenced by id, not by pointer.
type Node struct {
	ID       string   `json:"id"`
	ParentID string   `json:"parent_id,omitempty"`
	Question string   `json:"question"`
	Level    int      `json:"level"`
	State    State    `json:"state"`
	Children []string `json:"children,omitempty"`
}

// Map is the rooted sub-question tree. It is mutated only during planning;
// afterwards it is read-only for the rest of the request, which makes
// concurrent reads during branch fan-out safe without locking.
type Map struct {
	RootID string           `json:"root_id"`
	Nodes  map[string]*Node `json:"nodes"`
}

// New creates a one-node tree with the root in the given state.
func New(rootQuestion string, rootState State) *Map {
	root := &Node{
		ID:       uuid.NewString(),
		Question: rootQuestion,
		Level:    0,
		State:    rootState,
	}
	return &Map{RootID: root.ID, Nodes: map[string]*Node{root.ID: root}}
}

// Root returns the root node.
func (m *Map) Root() *Node { return m.Nodes[m.RootID] }

// AddChild appends a child question under parentID and returns the new node.
func (m *Map) AddChild(parentID, question string, state State) (*Node, error) {
	parent, ok := m.Nodes[parentID]
	if !ok {
		return nil, fmt.Errorf("parent node %s not in tree", parentID)
	}
	child := &Node{
		ID:       uuid.NewString(),
		ParentID: parentID,
		Question: question,
		Level:    parent.Level + 1,
		State:    state,
	}
	m.Nodes[child.ID] = child
	parent.Children = append(parent.Children, child.ID)
	return child, nil
}

// AtLevel returns the nodes at the given level, in insertion-independent
// but deterministic order (sorted by walking from the root).
func (m *Map) AtLevel(level int) []*Node {
	var out []*Node
	m.walk(m.Root(), func(n *Node) {
		if n.Level == level {
			out = append(out, n)
		}
	})
	return out
}

// Leaves returns every END node. After planning completes these are the
// questions fed to retrieval.
func (m *Map) Leaves() []*Node {
	var out []*Node
	m.walk(m.Root(), func(n *Node) {
		if n.State == StateEnd {
			out = append(out, n)
		}
	})
	return out
}

// Questions returns all question texts in the tree, used for duplicate
// suppression during expansion.
func (m *Map) Questions() []string {
	out := make([]string, 0, len(m.Nodes))
	m.walk(m.Root(), func(n *Node) {
		out = append(out, n.Question)
	})
	return out
}

// Seal forces any CONTINUE node without children to END. Planning must
// never leave an unresolved node behind.
func (m *Map) Seal() {
	for _, n := range m.Nodes {
		if n.State == StateContinue && len(n.Children) == 0 {
			n.State = StateEnd
		}
	}
}

// Depth returns the maximum level present in the tree.
func (m *Map) Depth() int {
	depth := 0
	m.walk(m.Root(), func(n *Node) {
		if n.Level > depth {
			depth = n.Level
		}
	})
	return depth
}

// Size returns the number of nodes.
func (m *Map) Size() int { return len(m.Nodes) }

func (m *Map) walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, id := range n.Children {
		m.walk(m.Nodes[id], fn)
	}
}
