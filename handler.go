// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

import "reflect"

// handlerEntry is a registry row created by installing WithHandler and
// removed when the prompt's segment is freed.
type handlerEntry struct {
	handler     Handler
	promptSeg   SegmentId
	identityTag string // Open Question 3; every current installation passes ""
}

// dispatchContext tracks one in-flight effect dispatch (§4.4).
type dispatchContext struct {
	id                 DispatchId
	effect             Effect
	kUser              *Continuation
	kUserID            ContId
	promptSegID        SegmentId
	activeHandlerSegID SegmentId
	completed          bool
	originalExc        error
	errorCtx           *errorCtxState // non-nil iff this is an error-context dispatch (§4.10)
	walk               walkState
}

// walkState carries the handler walk's mask-derived skip flags across a
// Pass continuation (§4.4 item 4, §4.9).
type walkState struct {
	skipNext   bool
	skipBehind bool
}

// handlerWalk finds the next eligible PromptBoundary above `start`,
// self-excluding the top active dispatch's own prompt (invariant 6,
// §8.1) and honoring Mask/MaskBehind skip sets crossed along the way
// (§4.9). Callers that need to continue past a Pass re-invoke with
// start = the found prompt itself (self-exclusion skips it while its
// dispatch is active) and the returned walkState.
func (vm *VM) handlerWalk(start SegmentId, effect Effect, top *dispatchContext, st walkState) (*segment, walkState, bool) {
	effType := reflect.TypeOf(effect)
	cur := start
	for {
		s := vm.arena.get(cur)
		switch s.kind {
		case kindMaskBoundary:
			if _, ok := s.maskedTypes[effType]; ok {
				st.skipNext = true
			}
			if _, ok := s.maskBehindTypes[effType]; ok {
				st.skipBehind = true
			}
		case kindPromptBoundary:
			selfExcluded := top != nil && !top.completed && s.id == top.promptSegID
			if !selfExcluded {
				if st.skipNext {
					st.skipNext = false
					if st.skipBehind {
						st.skipBehind = false
						st.skipNext = true
					}
				} else {
					if st.skipBehind {
						st.skipBehind = false
						st.skipNext = true
					}
					return s, st, true
				}
			}
		}
		if !s.hasCaller {
			return nil, st, false
		}
		cur = s.caller
	}
}

// topDispatch returns the most recently pushed, not-yet-completed
// dispatch context, or nil.
func (vm *VM) topDispatch() *dispatchContext {
	for i := len(vm.dispatchStack) - 1; i >= 0; i-- {
		if !vm.dispatchStack[i].completed {
			return vm.dispatchStack[i]
		}
	}
	return nil
}

// installHandler creates a PromptBoundary segment around body with a
// fresh marker, registering it in the handler registry (§4.4's
// "Entries are created by WithHandler installation").
func (vm *VM) installHandler(h Handler, identityTag string, body DoCtrl, returnClause func(any) any) SegmentId {
	marker := Marker(vm.markerSeq.alloc())
	cur := vm.arena.currentSegment()
	promptBody := body
	if returnClause != nil {
		promptBody = Map{Source: body, F: returnClause}
	}
	s := segment{
		kind:          kindPromptBoundary,
		handlerMarker: marker,
		handler:       h,
		hasCaller:     true,
		caller:        cur.id,
		prog:          promptBody,
		scope:         append(append([]Marker(nil), cur.scope...), marker),
	}
	id := vm.arena.alloc(s)
	vm.handlers[marker] = &handlerEntry{handler: h, promptSeg: id, identityTag: identityTag}
	return id
}

// uninstallHandler removes a prompt's registry entry when its lifetime
// ends (normal or abnormal exit of the installing WithHandler).
func (vm *VM) uninstallHandler(marker Marker) {
	delete(vm.handlers, marker)
}

// evalWithHandler installs h around c.Body as a fresh PromptBoundary
// segment and starts evaluating the body there (§4.3).
func (vm *VM) evalWithHandler(seg *segment, c WithHandler) Mode {
	id := vm.installHandler(c.Handler, "", c.Body, c.ReturnClause)
	vm.arena.current, vm.arena.hasCurrent = id, true
	return handleYieldMode(vm.arena.get(id).prog)
}

// performEffect runs dispatch protocol step 1 (§4.4): capture k_user
// from the current segment, push a fresh DispatchContext, create a
// handler execution segment, and invoke the chosen handler. Returns the
// Mode to transition to.
func (vm *VM) performEffect(eff Effect) Mode {
	cur := vm.arena.currentSegment()

	if owner, ok := vm.findIntercept(cur.id, noSegment, reflect.TypeOf(eff)); ok {
		return vm.runIntercept(owner, eff)
	}

	dispatchID := DispatchId(vm.dispatchSeq.alloc())
	kUser := vm.captureContinuation(cur, &dispatchID)

	entry, st, ok := vm.handlerWalk(cur.id, eff, vm.topDispatch(), walkState{})
	if !ok {
		return throwMode(newVMError("performEffect", ErrUnhandledEffect, "effect %T", eff))
	}
	// k_user now owns cur's pending frames; the handler's result flows
	// back through the prompt, so they must not run a second time here.
	cur.cont = nil

	dc := &dispatchContext{
		id:          dispatchID,
		effect:      eff,
		kUser:       kUser,
		kUserID:     kUser.id,
		promptSegID: entry.id,
		walk:        st,
	}
	vm.dispatchStack = append(vm.dispatchStack, dc)

	return vm.invokeHandlerEntry(dc, entry, eff)
}

// invokeHandlerEntry creates the handler execution segment for entry
// and evaluates its returned control expression. The handler addresses
// the performing site directly through dc.kUser via Resume/Transfer.
func (vm *VM) invokeHandlerEntry(dc *dispatchContext, entry *segment, eff Effect) Mode {
	execSeg := segment{
		kind:      kindNormal,
		hasCaller: true,
		caller:    entry.id,
		scope:     append([]Marker(nil), entry.scope...),
	}
	execID := vm.arena.alloc(execSeg)
	dc.activeHandlerSegID = execID

	before := vm.arena.current
	ir := entry.handler(eff, dc.kUser)

	// The scheduler's standard handler (scheduler.go) redirects
	// vm.arena.current directly as a side effect when it blocks the
	// calling task and switches to another one; in that case the exec
	// segment just allocated is never run.
	if vm.arena.hasCurrent && vm.arena.current != before {
		vm.arena.free_(execID)
		return handleYieldMode(vm.arena.currentSegment().prog)
	}

	vm.arena.get(execID).prog = ir
	vm.arena.current = execID
	vm.arena.hasCurrent = true
	return handleYieldMode(ir)
}
