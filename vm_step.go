// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// StepTag classifies one VM.step() iteration's outcome (§4.5).
type StepTag uint8

const (
	StepContinue StepTag = iota
	StepNeedsHost
	StepDone
	StepError
)

// hostRequest surfaces the one genuinely foreign boundary (Stream /
// AsyncAwaiter) to an external driver; every other NeedsHost kind
// resolves synchronously inline (§4.6, callframe.go's doc comment).
type hostRequest struct {
	kind    hostCallKind
	segment SegmentId
	stream  Stream
	async   AsyncAwaiter
}

// StepOutcome is returned by a single VM.step() iteration.
type StepOutcome struct {
	Tag   StepTag
	Value any
	Err   error
	Host  *hostRequest
}

// step advances the VM until it needs host input, finishes, or errors.
// Every DoCtrl node is handled without native Go recursion: Map/FlatMap
// push a binder onto the current segment's pending-continuation stack
// instead of recursing into Source, so arbitrarily deep chains never
// grow the Go call stack (§9's defunctionalized-evaluation redesign
// note).
func (vm *VM) step() StepOutcome {
	for {
		if !vm.arena.hasCurrent {
			return StepOutcome{Tag: StepDone}
		}
		seg := vm.arena.currentSegment()

		if seg.pendingHostCall != nil {
			switch seg.pendingHostCall.kind {
			case hostGenNext, hostGenSend, hostGenThrow:
				return StepOutcome{Tag: StepNeedsHost, Host: &hostRequest{kind: seg.pendingHostCall.kind, segment: seg.id, stream: seg.pendingHostCall.stream}}
			case hostCallAsync:
				return StepOutcome{Tag: StepNeedsHost, Host: &hostRequest{kind: hostCallAsync, segment: seg.id, async: seg.pendingHostCall.async}}
			}
		}

		mode := vm.evalOne(seg)
		switch mode.tag {
		case modeThrow:
			if done, outcome := vm.unwindThrow(seg.id, mode.exc); done {
				return outcome
			}
		case modeReturn:
			if done, outcome := vm.popSegment(seg.id, mode.value); done {
				return outcome
			}
		case modeDispatchError:
			next := vm.dispatchErrorToContext(mode.exc)
			vm.installMode(seg, next)
		case modeDeliver:
			vm.resolveValue(seg, mode.value)
		case modeHandleYield:
			// seg.prog/seg.cont already updated by evalOne; loop.
		}
	}
}

// installMode installs a Mode value produced off the normal evalOne
// path (error-context synthesis) as seg's next state.
func (vm *VM) installMode(seg *segment, m Mode) {
	switch m.tag {
	case modeHandleYield:
		seg.prog = m.ir
	case modeDeliver:
		vm.resolveValue(seg, m.value)
	case modeThrow:
		seg.prog = ThrowHost{Err: m.exc}
	case modeReturn:
		vm.resolveValue(seg, m.value)
	}
}

// resolveValue feeds v through seg's pending-continuation stack in LIFO
// order. A binder that yields Pure is applied immediately without
// re-entering the main loop (keeping straight-line pure code cheap); a
// binder that yields a compound DoCtrl becomes seg's new program and
// evaluation continues there next iteration. An empty stack means the
// segment itself is done: seg.prog becomes Pure{v} and the loop's modeReturn
// path (via popSegment) propagates v to the caller.
func (vm *VM) resolveValue(seg *segment, v any) {
	for len(seg.cont) > 0 {
		n := len(seg.cont) - 1
		f := seg.cont[n]
		seg.cont = seg.cont[:n]
		next := f.binder(v)
		if p, ok := next.(Pure); ok {
			v = p.Value
			continue
		}
		seg.prog = next
		return
	}
	seg.prog = Pure{Value: v}
}

// evalOne evaluates exactly one DoCtrl node of seg.prog, mutating seg
// and the arena as needed, and returns the resulting Mode.
func (vm *VM) evalOne(seg *segment) Mode {
	ctrl := seg.prog
	if ctrl == nil {
		return returnMode(nil)
	}

	switch c := ctrl.(type) {
	case Pure:
		if len(seg.cont) == 0 {
			return returnMode(c.Value)
		}
		vm.resolveValue(seg, c.Value)
		return handleYieldMode(seg.prog)

	case Map:
		seg.cont = append(seg.cont, contFrame{binder: func(v any) DoCtrl { return Pure{Value: c.F(v)} }})
		seg.prog = c.Source
		return handleYieldMode(seg.prog)

	case FlatMap:
		seg.cont = append(seg.cont, contFrame{binder: c.Binder})
		seg.prog = c.Source
		return handleYieldMode(seg.prog)

	case Perform:
		return vm.performEffect(c.Effect)

	case WithHandler:
		return vm.evalWithHandler(seg, c)

	case WithIntercept:
		id := vm.installIntercept(c.Interceptor, c.Body)
		vm.arena.current, vm.arena.hasCurrent = id, true
		return handleYieldMode(c.Body)

	case Mask:
		id := vm.installMask(c.Types, c.Body)
		vm.arena.current, vm.arena.hasCurrent = id, true
		return handleYieldMode(c.Body)

	case MaskBehind:
		id := vm.installMaskBehind(c.Types, c.Body)
		vm.arena.current, vm.arena.hasCurrent = id, true
		return handleYieldMode(c.Body)

	case Resume:
		return vm.evalResume(c.K, c.Value)

	case Transfer:
		return vm.evalTransfer(c.K, c.Value)

	case TransferThrow:
		return vm.evalTransferThrow(c.K, c.Exc)

	case Delegate:
		return vm.evalDelegate(seg, c.Effect)

	case Pass:
		return vm.evalPass(seg, c.Effect)

	case GetContinuation:
		dispatchID := DispatchId(vm.dispatchSeq.alloc())
		k := vm.captureContinuation(seg, &dispatchID)
		return deliverMode(k)

	case GetHandlers:
		return deliverMode(vm.describeHandlers())

	case GetCallStack:
		return deliverMode(vm.describeCallStack(seg.id))

	case GetTraceback:
		return deliverMode(vm.describeTraceback(c.K))

	case CreateContinuation:
		return deliverMode(vm.newUnstartedContinuation(c.Expr, c.Handlers))

	case ResumeContinuation:
		return vm.evalResumeContinuation(c.K, c.Value)

	case Eval:
		body := installHandlersOuterFirst(c.Expr, c.Handlers)
		id := vm.arena.alloc(segment{kind: kindNormal, hasCaller: true, caller: seg.id, prog: body, scope: append([]Marker(nil), seg.scope...)})
		vm.arena.current, vm.arena.hasCurrent = id, true
		return handleYieldMode(body)

	case Finally:
		return vm.evalFinally(seg, c)

	case Apply:
		return vm.evalApply(seg, c)

	case Pipeline:
		return vm.evalPipeline(seg, c.Stream)

	case pipelineStep:
		yielded, done, err := c.advance()
		return vm.resumePipeline(seg, c.stream, yielded, done, err)

	case AsyncEscape:
		seg.pendingHostCall = &hostCallTag{kind: hostCallAsync, async: c.Action}
		return handleYieldMode(nil)

	case ThrowHost:
		return throwMode(c.Err)

	default:
		return throwMode(TypeError("evalOne", ctrl, "DoCtrl"))
	}
}

// popSegment delivers a completed segment's value to its caller,
// freeing the segment (§4.1). Returns (true, outcome) when the whole
// run has finished (no caller segment).
//
// A segment with no caller is always a task root (§4.8): the top-level
// program's own task, or one spawned by Spawn. Only the former's
// completion ends the run; any other task's completion is scheduler
// bookkeeping (settle its result, wake waiters, switch to the next
// ready task) and the loop keeps going.
func (vm *VM) popSegment(id SegmentId, value any) (bool, StepOutcome) {
	s := vm.arena.get(id)
	if s.kind == kindPromptBoundary {
		vm.uninstallHandler(s.handlerMarker)
	}
	if !s.hasCaller {
		if tid, ok := vm.sched.segToTask[id]; ok {
			vm.arena.free_(id)
			if vm.sched.completeTask(tid, value, nil) {
				return true, StepOutcome{Tag: StepDone, Value: value}
			}
			return false, StepOutcome{}
		}
		vm.arena.free_(id)
		vm.arena.hasCurrent = false
		return true, StepOutcome{Tag: StepDone, Value: value}
	}
	caller := vm.arena.get(s.caller)
	vm.arena.free_(id)
	vm.arena.current, vm.arena.hasCurrent = caller.id, true
	vm.resolveValue(caller, value)
	return false, StepOutcome{}
}

// unwindThrow propagates a host exception. Before abandoning the
// current segment it scans the segment's own pending-continuation
// stack for an interposed Finally cleanup (LIFO, nearest first) and
// runs it in place rather than discarding it — resource cleanup must
// still happen on the abrupt-exit path, not just normal completion.
func (vm *VM) unwindThrow(id SegmentId, exc error) (bool, StepOutcome) {
	s := vm.arena.get(id)
	if cleanup, rest, ok := popFinallyFrame(s.cont); ok {
		s.cont = rest
		s.prog = FlatMap{Source: cleanup, Binder: func(any) DoCtrl { return ThrowHost{Err: exc} }}
		vm.arena.current, vm.arena.hasCurrent = id, true
		return false, StepOutcome{}
	}
	if s.kind == kindPromptBoundary {
		vm.uninstallHandler(s.handlerMarker)
	}
	if !s.hasCaller {
		if tid, ok := vm.sched.segToTask[id]; ok {
			vm.arena.free_(id)
			if vm.sched.completeTask(tid, nil, exc) {
				return true, StepOutcome{Tag: StepError, Err: exc}
			}
			return false, StepOutcome{}
		}
		vm.arena.free_(id)
		vm.arena.hasCurrent = false
		return true, StepOutcome{Tag: StepError, Err: exc}
	}
	caller := vm.arena.get(s.caller)
	vm.arena.free_(id)
	caller.prog = ThrowHost{Err: exc}
	vm.arena.current, vm.arena.hasCurrent = caller.id, true
	return false, StepOutcome{}
}

// describeHandlers renders the handler registry for GetHandlers
// introspection (§4.4).
func (vm *VM) describeHandlers() []Marker {
	out := make([]Marker, 0, len(vm.handlers))
	for m := range vm.handlers {
		out = append(out, m)
	}
	return out
}

// describeCallStack renders the caller chain from seg up to the root
// as a CallStackDescriptor (§4.2).
func (vm *VM) describeCallStack(from SegmentId) CallStackDescriptor {
	var entries []CallStackEntry
	vm.arena.iterCallerChain(from, func(s *segment) bool {
		kind := "normal"
		switch s.kind {
		case kindPromptBoundary:
			kind = "prompt"
		case kindMaskBoundary:
			kind = "mask"
		}
		entries = append(entries, CallStackEntry{Segment: s.id, Kind: kind})
		return true
	})
	return CallStackDescriptor{Entries: entries}
}

func (vm *VM) describeTraceback(k *Continuation) CallStackDescriptor {
	var entries []CallStackEntry
	for c := k; c != nil; c = c.parent {
		entries = append(entries, CallStackEntry{Kind: "capture", Meta: c.callMeta})
	}
	return CallStackDescriptor{Entries: entries}
}
