package mvm

// Stack is the runtime value stack. The top lives at the end of the slice;
// index arithmetic in Dig/Dug mirrors that. A Stack is owned by exactly one
// evaluation and never shared.
type Stack struct {
	items []Value
}

// NewStack builds a stack from values listed top first, matching how stack
// types are written.
func NewStack(topFirst ...Value) *Stack {
	s := &Stack{items: make([]Value, 0, len(topFirst)+8)}
	for i := len(topFirst) - 1; i >= 0; i-- {
		s.items = append(s.items, topFirst[i])
	}
	return s
}

func (s *Stack) Len() int { return len(s.items) }

func (s *Stack) Push(v Value) {
	s.items = append(s.items, v)
}

// Pop removes and returns the top value. The typechecker guarantees depth;
// the evaluator re-checks it once per instruction before calling.
func (s *Stack) Pop() Value {
	v := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	return v
}

// Peek returns the value at the given depth, 0 being the top.
func (s *Stack) Peek(depth int) Value {
	return s.items[len(s.items)-1-depth]
}

func (s *Stack) Swap() {
	n := len(s.items)
	s.items[n-1], s.items[n-2] = s.items[n-2], s.items[n-1]
}

// Dig removes the value at depth n and pushes it on top. Dig(0) is a no-op.
func (s *Stack) Dig(n int) {
	if n == 0 {
		return
	}
	i := len(s.items) - 1 - n
	v := s.items[i]
	copy(s.items[i:], s.items[i+1:])
	s.items[len(s.items)-1] = v
}

// Dug moves the top value down to depth n. Dug(0) is a no-op.
func (s *Stack) Dug(n int) {
	if n == 0 {
		return
	}
	top := len(s.items) - 1
	v := s.items[top]
	i := top - n
	copy(s.items[i+1:], s.items[i:top])
	s.items[i] = v
}

// Items returns the stack contents top first.
func (s *Stack) Items() []Value {
	out := make([]Value, len(s.items))
	for i, v := range s.items {
		out[len(s.items)-1-i] = v
	}
	return out
}
