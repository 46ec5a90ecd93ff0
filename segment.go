// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

import "reflect"

// segmentKind distinguishes the three segment kinds of §3.2.
type segmentKind uint8

const (
	kindNormal segmentKind = iota
	kindPromptBoundary
	kindMaskBoundary
)

// Mode is the step loop's instruction register (§4.5).
type Mode struct {
	tag   modeTag
	value any   // Deliver(value) / Return(value)
	exc   error // Throw(exception) / DispatchError(exception)
	ir    DoCtrl
}

type modeTag uint8

const (
	modeDeliver modeTag = iota
	modeThrow
	modeHandleYield
	modeReturn
	modeDispatchError
)

// contFrame is one entry of a segment's pending-continuation stack.
// cleanup is non-nil only for frames pushed by Finally (finally.go):
// on normal flow, binder already runs cleanup before continuing; on an
// abrupt throw unwinding past this frame, unwindThrow re-evaluates
// cleanup directly instead of discarding the frame like an ordinary
// Map/FlatMap binder.
type contFrame struct {
	binder  func(any) DoCtrl
	cleanup DoCtrl
}

func deliverMode(v any) Mode         { return Mode{tag: modeDeliver, value: v} }
func throwMode(e error) Mode         { return Mode{tag: modeThrow, exc: e} }
func handleYieldMode(ir DoCtrl) Mode { return Mode{tag: modeHandleYield, ir: ir} }
func returnMode(v any) Mode          { return Mode{tag: modeReturn, value: v} }
func dispatchErrorMode(e error) Mode { return Mode{tag: modeDispatchError, exc: e} }

// hostCallTag records which bridge path is in flight for a segment
// (§4.6). No code path sets the apply* fields: evalApply resolves its
// arguments through a FlatMap chain instead (apply.go).
type hostCallTag struct {
	kind hostCallKind
	// apply phase state
	applyPhase   int
	applyArgsIn  []DoCtrl
	applyKwIn    map[string]DoCtrl
	applyArgsOut []any
	applyKwOut   map[string]any
	applyFn      Callable
	applyMeta    *CallMeta
	applyEvalRes bool
	// stream state
	stream Stream
	// async state
	async AsyncAwaiter
}

type hostCallKind uint8

const (
	hostEvalExpr hostCallKind = iota
	hostCallFunc
	hostCallAsync
	hostCallHandler
	hostGenNext
	hostGenSend
	hostGenThrow
)

// interceptGuard is the segment-local interception bookkeeping of §4.9,
// inherited by value into child segments so re-entrancy is bounded but
// child mutation never escapes upward.
type interceptGuard struct {
	evalDepth int
	skipStack []reflect.Type
}

// segment is a delimited execution context (§3.2). The segment's
// pending work is the DoCtrl being reduced (prog) plus a stack of
// contFrame binders (cont) that evaluating a FlatMap/Map pushes onto.
// §3.3's three frame kinds collapse as follows:
// HostReturn becomes a contFrame binder on that stack; InternalProgram
// becomes a fresh caller-linked segment whose own chain IS the program
// (handler/scheduler invocation, §4.4 step 1); LazyStream becomes the
// Pipeline terminal DoCtrl node, routed through the Stream boundary.
type segment struct {
	id   SegmentId
	prog DoCtrl // the DoCtrl node currently being reduced; nil means a bare value is pending in cont

	// cont is the pending-continuation stack produced by reducing
	// Map/FlatMap/Finally nodes (§3.3's frame stack, represented as
	// closures instead of a separate Frame type): most recently pushed
	// last, applied LIFO as each successive DoCtrl fully reduces to a
	// value. A captured continuation snapshots prog and cont together.
	cont []contFrame

	hasCaller bool
	caller    SegmentId

	scope []Marker // innermost-first cache; rebuildable from caller chain

	kind segmentKind

	// kindPromptBoundary
	handlerMarker Marker
	handler       Handler

	// kindMaskBoundary
	maskedTypes     map[reflect.Type]struct{}
	maskBehindTypes map[reflect.Type]struct{}

	// execution-local state (§5 invariant: lives on the segment, not the VM)
	mode            Mode
	pendingHostCall *hostCallTag
	pendingErrCtx   *errorCtxState
	guard           interceptGuard
	interceptor     Interceptor
	hasIntercept    bool

	free bool
}

// arena owns segments by id, reusing freed slots via a free-list
// (§4.1). Exactly one segment is "current" at a time, or none iff the
// run has completed (invariant 1 of §8.1).
type arena struct {
	segs       []segment
	freeList   []SegmentId
	current    SegmentId
	hasCurrent bool
}

func newArena() *arena {
	return &arena{}
}

func (a *arena) alloc(s segment) SegmentId {
	if n := len(a.freeList); n > 0 {
		id := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		s.id = id
		s.free = false
		a.segs[id] = s
		return id
	}
	id := SegmentId(len(a.segs))
	s.id = id
	a.segs = append(a.segs, s)
	return id
}

func (a *arena) get(id SegmentId) *segment {
	if id < 0 || int(id) >= len(a.segs) || a.segs[id].free {
		panic(newVMError("arena.get", ErrArenaCorruption, "segment %d not live", id))
	}
	return &a.segs[id]
}

func (a *arena) free_(id SegmentId) {
	s := a.get(id)
	*s = segment{free: true}
	a.freeList = append(a.freeList, id)
}

// iterCallerChain walks from id up through caller links, calling visit
// for each segment until visit returns false or the chain is exhausted.
func (a *arena) iterCallerChain(id SegmentId, visit func(*segment) bool) {
	cur := id
	for {
		s := a.get(cur)
		if !visit(s) {
			return
		}
		if !s.hasCaller {
			return
		}
		cur = s.caller
	}
}

func (a *arena) currentSegment() *segment {
	if !a.hasCurrent {
		panic(newVMError("arena.currentSegment", ErrArenaCorruption, "no current segment"))
	}
	return a.get(a.current)
}
