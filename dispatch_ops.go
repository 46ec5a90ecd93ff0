// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

import "errors"

// completeDispatch marks a dispatch context resolved once its k_user
// resumes: from then on the handler walk's self-exclusion rule no
// longer treats that dispatch's prompt as active (§4.4 invariant 6).
func (vm *VM) completeDispatch(id DispatchId) {
	for _, dc := range vm.dispatchStack {
		if dc.id == id {
			dc.completed = true
			return
		}
	}
}

// findDispatchForExecSeg locates the dispatch context whose handler
// clause is currently executing in segID (most recently pushed first,
// matching normal nesting order).
func (vm *VM) findDispatchForExecSeg(segID SegmentId) *dispatchContext {
	for i := len(vm.dispatchStack) - 1; i >= 0; i-- {
		if vm.dispatchStack[i].activeHandlerSegID == segID {
			return vm.dispatchStack[i]
		}
	}
	return nil
}

// evalResume implements call-style resume (§4.3): K is consumed
// one-shot, and a fresh segment linked under the current one resumes
// its snapshot — when that segment finishes, the value flows back into
// the current segment's own pending continuation, exactly as an
// ordinary nested call would.
func (vm *VM) evalResume(k *Continuation, value any) Mode {
	c, ok := vm.conts.consume(k.id)
	if !ok {
		return throwMode(newVMError("Resume", ErrDoubleResume, "continuation %d", k.id))
	}
	if c.kind != contCaptured {
		return throwMode(newVMError("Resume", ErrWrongResumeKind, "continuation %d is unstarted", k.id))
	}
	if c.dispatch != nil {
		vm.completeDispatch(*c.dispatch)
	}
	cur := vm.arena.currentSegment()
	child := segment{
		kind:            kindNormal,
		hasCaller:       true,
		caller:          cur.id,
		prog:            c.snapshot,
		cont:            append([]contFrame(nil), c.contSnap...),
		scope:           append([]Marker(nil), c.scope...),
		pendingHostCall: c.execSnap.pendingHostCall,
		pendingErrCtx:   c.execSnap.pendingErrCtx,
		guard:           c.execSnap.guard,
	}
	id := vm.arena.alloc(child)
	vm.arena.current, vm.arena.hasCurrent = id, true
	vm.resolveValue(vm.arena.get(id), value)
	return handleYieldMode(vm.arena.get(id).prog)
}

// evalTransfer implements tail-style resume (§4.3): K's state replaces
// the current segment's own pending continuation in place, discarding
// whatever remained of the current segment's own cont stack — the
// handler clause never regains control after a Transfer.
func (vm *VM) evalTransfer(k *Continuation, value any) Mode {
	c, ok := vm.conts.consume(k.id)
	if !ok {
		return throwMode(newVMError("Transfer", ErrDoubleResume, "continuation %d", k.id))
	}
	if c.kind != contCaptured {
		return throwMode(newVMError("Transfer", ErrWrongResumeKind, "continuation %d is unstarted", k.id))
	}
	if c.dispatch != nil {
		vm.completeDispatch(*c.dispatch)
	}
	cur := vm.arena.currentSegment()
	cur.cont = append([]contFrame(nil), c.contSnap...)
	cur.scope = append([]Marker(nil), c.scope...)
	cur.pendingHostCall = c.execSnap.pendingHostCall
	cur.pendingErrCtx = c.execSnap.pendingErrCtx
	cur.guard = c.execSnap.guard
	vm.resolveValue(cur, value)
	return handleYieldMode(cur.prog)
}

// evalTransferThrow is Transfer but throws Exc into K's restored
// context instead of delivering a value, running any Finally cleanups
// interposed in K's own captured cont stack along the way.
func (vm *VM) evalTransferThrow(k *Continuation, exc error) Mode {
	c, ok := vm.conts.consume(k.id)
	if !ok {
		return throwMode(newVMError("TransferThrow", ErrDoubleResume, "continuation %d", k.id))
	}
	if c.kind != contCaptured {
		return throwMode(newVMError("TransferThrow", ErrWrongResumeKind, "continuation %d is unstarted", k.id))
	}
	if c.dispatch != nil {
		vm.completeDispatch(*c.dispatch)
	}
	cur := vm.arena.currentSegment()
	cur.cont = append([]contFrame(nil), c.contSnap...)
	cur.scope = append([]Marker(nil), c.scope...)
	cur.prog = ThrowHost{Err: exc}
	return handleYieldMode(cur.prog)
}

// evalDelegate re-performs an effect from within a handler clause body
// (§4.4 item 4): since self-exclusion already skips the currently
// active dispatch's own prompt, Delegate is exactly an ordinary Perform
// issued from the handler's own execution segment — the result flows
// back into that segment's pending continuation, not to the original
// performer.
func (vm *VM) evalDelegate(seg *segment, eff Effect) Mode {
	top := vm.topDispatch()
	if top == nil {
		return throwMode(newVMError("Delegate", ErrResumeOutsideDispatch, "no active dispatch"))
	}
	if eff == nil {
		eff = top.effect
	}
	m := vm.performEffect(eff)
	if m.tag == modeThrow && errors.Is(m.exc, ErrUnhandledEffect) {
		return throwMode(newVMError("Delegate", ErrDelegateNoOuterHandler, "effect %T", eff))
	}
	return m
}

// evalPass hands the current dispatch off to the next outer handler
// terminally (§4.4 item 4): the same dispatch context and k_user
// continue, only the active handler segment changes. The passing
// handler's own execution segment is abandoned.
func (vm *VM) evalPass(seg *segment, eff Effect) Mode {
	dc := vm.findDispatchForExecSeg(seg.id)
	if dc == nil {
		return throwMode(newVMError("Pass", ErrResumeOutsideDispatch, "no active dispatch for this handler"))
	}
	if eff == nil {
		eff = dc.effect
	} else {
		dc.effect = eff
	}
	entry, st, ok := vm.handlerWalk(dc.promptSegID, eff, dc, dc.walk)
	if !ok {
		return throwMode(newVMError("Pass", ErrUnhandledEffect, "effect %T", eff))
	}
	dc.walk = st
	dc.promptSegID = entry.id
	vm.arena.free_(seg.id)
	return vm.invokeHandlerEntry(dc, entry, eff)
}

// evalResumeContinuation implements the general-purpose ResumeContinuation
// node (§4.3): an unstarted continuation is installed and run fresh; a
// captured one resumes call-style exactly like Resume.
func (vm *VM) evalResumeContinuation(k *Continuation, value any) Mode {
	if k.kind == contUnstarted {
		if _, ok := vm.conts.consume(k.id); !ok {
			return throwMode(newVMError("ResumeContinuation", ErrDoubleResume, "continuation %d", k.id))
		}
		body := installHandlersOuterFirst(k.expr, k.handlers)
		cur := vm.arena.currentSegment()
		id := vm.arena.alloc(segment{kind: kindNormal, hasCaller: true, caller: cur.id, prog: body, scope: append([]Marker(nil), cur.scope...)})
		vm.arena.current, vm.arena.hasCurrent = id, true
		return handleYieldMode(body)
	}
	return vm.evalResume(k, value)
}
