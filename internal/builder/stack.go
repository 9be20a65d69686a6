package builder

import "github.com/dgallion1/texgest/internal/doctree"

// Stack is the open-scope stack of a build. The bottom entry is the root,
// which is never popped. Nodes are attached to their parent when popped,
// never while open.
type Stack struct {
	tree *doctree.Tree
	ids  []doctree.NodeID
}

// NewStack returns a stack seeded with root.
func NewStack(t *doctree.Tree, root doctree.NodeID) *Stack {
	return &Stack{tree: t, ids: []doctree.NodeID{root}}
}

// Len is the number of open scopes, root included.
func (s *Stack) Len() int { return len(s.ids) }

// Root is the bottom of the stack.
func (s *Stack) Root() doctree.NodeID { return s.ids[0] }

// Top is the innermost open scope.
func (s *Stack) Top() doctree.NodeID { return s.ids[len(s.ids)-1] }

// TopNode is the node of the innermost open scope.
func (s *Stack) TopNode() *doctree.Node { return s.tree.Node(s.Top()) }

// Push opens a scope.
func (s *Stack) Push(id doctree.NodeID) {
	s.ids = append(s.ids, id)
}

// Attach appends a finished node to the innermost scope without opening it.
func (s *Stack) Attach(id doctree.NodeID) {
	s.tree.Append(s.Top(), id)
}

// Pop closes the innermost scope and attaches it to the scope below. It
// returns doctree.None when only the root is left.
func (s *Stack) Pop() doctree.NodeID {
	if len(s.ids) == 1 {
		return doctree.None
	}
	id := s.Top()
	s.ids = s.ids[:len(s.ids)-1]
	s.tree.Append(s.Top(), id)
	return id
}

// Drop removes the innermost scope without attaching it. It is used for
// scopes whose node is owned elsewhere, such as table cells.
func (s *Stack) Drop() doctree.NodeID {
	if len(s.ids) == 1 {
		return doctree.None
	}
	id := s.Top()
	s.ids = s.ids[:len(s.ids)-1]
	return id
}

// PopWhile pops scopes while keep reports true for the innermost one.
func (s *Stack) PopWhile(keep func(*doctree.Node) bool) {
	for len(s.ids) > 1 && keep(s.TopNode()) {
		s.Pop()
	}
}

// PopAbove pops every scope above depth n, leaving n scopes open.
func (s *Stack) PopAbove(n int) {
	for len(s.ids) > n && len(s.ids) > 1 {
		s.Pop()
	}
}

// CloseTo pops every scope opened after id, then id itself. It reports
// false, popping nothing, when id is not open.
func (s *Stack) CloseTo(id doctree.NodeID) bool {
	at := s.index(id)
	if at <= 0 {
		return false
	}
	s.PopAbove(at)
	return true
}

// Find walks from the innermost scope outwards and returns the first scope
// matching fn, or doctree.None.
func (s *Stack) Find(fn func(*doctree.Node) bool) doctree.NodeID {
	for i := len(s.ids) - 1; i >= 0; i-- {
		if n := s.tree.Node(s.ids[i]); fn(n) {
			return n.ID
		}
	}
	return doctree.None
}

// Finish closes every scope and returns the root.
func (s *Stack) Finish() doctree.NodeID {
	s.PopAbove(1)
	return s.Root()
}

func (s *Stack) index(id doctree.NodeID) int {
	for i := len(s.ids) - 1; i >= 0; i-- {
		if s.ids[i] == id {
			return i
		}
	}
	return -1
}
