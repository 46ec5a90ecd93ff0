// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// Continuation is the VM-value-level one-shot resumption handle (§3.4):
// captured/unstarted, carrying the segment-local execution state a
// resume must restore. One-shot consumption is enforced by
// contRegistry.consume below, not by the handle itself.
type Continuation struct {
	id   ContId
	kind contKind

	// captured: started, carries a snapshot
	snapshot DoCtrl
	contSnap []contFrame
	scope    []Marker
	marker   Marker
	dispatch *DispatchId
	execSnap execSnapshot

	// unstarted: expression + handlers to install on resume
	expr     DoCtrl
	handlers []Handler

	parent   *Continuation
	callMeta *CallMeta
}

type contKind uint8

const (
	contCaptured contKind = iota
	contUnstarted
)

// execSnapshot is the segment-local execution state captured alongside
// a continuation (§3.4): mode, pending host-call tag, pending error
// context, and interception guards.
type execSnapshot struct {
	mode            Mode
	pendingHostCall *hostCallTag
	pendingErrCtx   *errorCtxState
	guard           interceptGuard
}

// contRegistry assigns ContIds and enforces one-shot consumption
// (§4.3), replacing a global mutable table keyed by pointer identity
// with a per-VM owned map (design note).
type contRegistry struct {
	seq      idSeq
	entries  map[ContId]*Continuation
	consumed map[ContId]bool
}

func newContRegistry() *contRegistry {
	return &contRegistry{
		entries:  make(map[ContId]*Continuation),
		consumed: make(map[ContId]bool),
	}
}

func (r *contRegistry) register(c *Continuation) ContId {
	id := ContId(r.seq.alloc())
	c.id = id
	r.entries[id] = c
	return id
}

// consume marks id used and returns the continuation, or reports
// failure if it was already consumed or is unknown.
func (r *contRegistry) consume(id ContId) (*Continuation, bool) {
	if r.consumed[id] {
		return nil, false
	}
	c, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	r.consumed[id] = true
	return c, true
}

func (r *contRegistry) isConsumed(id ContId) bool { return r.consumed[id] }

// captureContinuation snapshots segment s's pending continuation stack,
// scope, and execution-local state as of dispatch d (capture, §4.3).
// The snapshot program is always a bare Pure{} placeholder: whatever
// node triggered the capture (Perform, GetContinuation, ...) is itself
// discarded, since the real "rest of the computation" already lives
// entirely in s.cont (the binder stack built up by the FlatMap/Map
// chain leading to this point) — resuming plugs the resume value
// straight into that stack. Dispatch id is set iff this is a dispatch
// callsite continuation (k_user).
func (vm *VM) captureContinuation(s *segment, dispatchID *DispatchId) *Continuation {
	if s.pendingHostCall != nil {
		panic(newVMError("captureContinuation", ErrCaptureDuringHostCall, ""))
	}
	c := &Continuation{
		kind:     contCaptured,
		snapshot: Pure{},
		contSnap: append([]contFrame(nil), s.cont...),
		scope:    append([]Marker(nil), s.scope...),
		dispatch: dispatchID,
		execSnap: execSnapshot{
			mode:            s.mode,
			pendingHostCall: s.pendingHostCall,
			pendingErrCtx:   s.pendingErrCtx,
			guard:           s.guard,
		},
	}
	vm.conts.register(c)
	return c
}

// newUnstartedContinuation builds an unstarted continuation from a
// CreateContinuation node.
func (vm *VM) newUnstartedContinuation(expr DoCtrl, handlers []Handler) *Continuation {
	c := &Continuation{kind: contUnstarted, expr: expr, handlers: handlers}
	vm.conts.register(c)
	return c
}

// installHandlersOuterFirst wraps body in nested WithHandler prompts,
// handlers[0] outermost. §4.3's ResumeContinuation(unstarted) (which
// ignores its value argument), Eval, Spawn and start use it to install
// a handler list before evaluating the expression.
func installHandlersOuterFirst(body DoCtrl, handlers []Handler) DoCtrl {
	result := body
	for i := len(handlers) - 1; i >= 0; i-- {
		result = WithHandler{Handler: handlers[i], Body: result}
	}
	return result
}
