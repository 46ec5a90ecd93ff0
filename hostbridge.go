// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

import "github.com/google/uuid"

// CompleteExternalPromise settles an external promise identified by its
// cross-process uuid.UUID (the UUID returned by performing
// CreateExternalPromise, §4.8/§6.2). Unlike the settle path a running
// program drives via CompletePromise/FailPromise effects, this is the
// entry point for code outside the step loop — e.g. an HTTP handler or
// a goroutine running a host callback — to report a result back in,
// from any goroutine: the wake is queued onto the scheduler's
// mutex-guarded wakeList and drained on the next task switch. Reports
// whether u names a known external promise.
func (vm *VM) CompleteExternalPromise(u uuid.UUID, value any, err error) bool {
	p, ok := vm.sched.proms.byExternalID(u)
	if !ok {
		return false
	}
	vm.sched.settle(p.id, value, err)
	return true
}

// resolveAsync feeds an AsyncEscape's outcome back into the segment
// that issued it, clearing the pending host-call tag so the step loop
// resumes driving it (§4.6). Called by AsyncRun's driver once the host
// event loop has awaited the action; Run (the synchronous entry point)
// never produces a hostCallAsync request in the first place, since
// AsyncEscape is only valid under AsyncRun (ctrl.go's doc comment).
func (vm *VM) resolveAsync(segID SegmentId, value any, err error) {
	seg := vm.arena.get(segID)
	seg.pendingHostCall = nil
	vm.arena.current, vm.arena.hasCurrent = segID, true
	if err != nil {
		seg.prog = ThrowHost{Err: err}
		return
	}
	vm.resolveValue(seg, value)
}
