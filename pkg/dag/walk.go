package dag

import "context"

// NodeNotFound is returned by a [NextNodeFunc] when the current node has no
// further node to visit. The driver then pops the current frame.
const NodeNotFound = -1

// NextNodeFunc decides where a traversal goes from current.
//
// It returns the next node to push, or [NodeNotFound] to pop current and
// resume at the frame below it. The driver keeps no visited set: a policy
// must mark nodes it returns (usually in a [Flags]) so it does not hand the
// same node out twice.
type NextNodeFunc func(current int) int

// Walk runs an iterative depth-first traversal from start.
//
// Walk keeps an explicit stack of frames. For the frame on top it calls next
// with that node; a real node is pushed, [NodeNotFound] pops. Walk returns
// when the stack is empty. Auxiliary memory is O(depth) and total work is
// bounded by the policy, O(nodes + edges) for every policy in this module.
//
// start itself is not passed through any visited check; callers mark it
// before calling Walk if they track visits.
func Walk(start int, next NextNodeFunc) {
	stack := make([]int, 1, 64)
	stack[0] = start
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if n := next(top); n != NodeNotFound {
			stack = append(stack, n)
		} else {
			stack = stack[:len(stack)-1]
		}
	}
}

// Cancellable wraps next so the walk unwinds once ctx is done.
// After cancellation every call returns [NodeNotFound], which pops the
// whole stack in O(depth).
func Cancellable(ctx context.Context, next NextNodeFunc) NextNodeFunc {
	return func(current int) int {
		if ctx.Err() != nil {
			return NodeNotFound
		}
		return next(current)
	}
}
