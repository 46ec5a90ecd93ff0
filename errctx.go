// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// GetExecutionContext is the effect dispatchErrorToContext performs for
// a DispatchError mode (§4.10), carrying the exception so installed
// handlers can attach context. No evaluation path produces a
// DispatchError mode, so the step loop never performs it: a thrown
// exception unwinds through unwindThrow without enrichment.
type GetExecutionContext struct {
	Exc error
}

func (GetExecutionContext) EffectKind() string { return "GetExecutionContext" }

// errorCtxState is the segment-local bookkeeping for an in-flight
// error-context dispatch (§4.10). While non-nil on a segment, the step
// loop is in_error_dispatch for that segment: a second DispatchError
// reaching the same segment bypasses GetExecutionContext entirely and
// propagates directly (no recursive enrichment), and only
// user-program steps are allowed to request it — a host-call boundary
// never synthesizes GetExecutionContext on the host's behalf.
type errorCtxState struct {
	original error
	resumed  bool
}

// dispatchErrorToContext turns a DispatchError(exc) mode transition
// into a GetExecutionContext performance, unless this segment is
// already inside one (guard against recursive enrichment of the same
// exception).
func (vm *VM) dispatchErrorToContext(exc error) Mode {
	cur := vm.arena.currentSegment()
	if cur.pendingErrCtx != nil {
		// Already enriching this segment's exception: propagate as a
		// plain throw instead of recursing into GetExecutionContext again.
		return throwMode(exc)
	}
	cur.pendingErrCtx = &errorCtxState{original: exc}
	return vm.performEffect(GetExecutionContext{Exc: exc})
}

// clearErrorCtx resets a segment's in_error_dispatch flag. Nothing calls
// it, so a segment's pendingErrCtx, once set, stays set.
func clearErrorCtx(s *segment) { s.pendingErrCtx = nil }
