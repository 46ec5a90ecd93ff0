// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// taskStatus tracks a task's lifecycle (§4.8).
type taskStatus uint8

const (
	taskReady taskStatus = iota
	taskRunning
	taskBlocked
	taskDone
	taskFailed
	taskCancelled
)

// task is one cooperatively scheduled unit of work. Each task owns its
// own root segment (no caller — an independent execution, not a nested
// call) and its own typed-store state/log layer (§4.8); the env layer
// is shared process-wide.
type task struct {
	id      TaskId
	root    SegmentId
	status  taskStatus
	result  any
	err     error
	state   map[string]any
	log     []any
	waiters []*waiter
}

// waiter is a continuation blocked on one or more tasks finishing.
// pending counts how many of the tasks it's waiting on are still
// outstanding; when it reaches zero a Gather resumes with the results
// map. A Race (and a Wait, which is a Race over one task) resumes with
// the first result to arrive, and any failed or cancelled target throws
// its error at once. satisfied is set when the waiter is resumed, and
// later arrivals are ignored.
type waiter struct {
	owner     TaskId
	k         *Continuation
	pending   int
	results   map[TaskId]any
	satisfied bool
	race      bool
}

func newScheduler(vm *VM) *scheduler {
	return &scheduler{
		vm:        vm,
		tasks:     make(map[TaskId]*task),
		segToTask: make(map[SegmentId]TaskId),
		proms:     newPromiseRegistry(),
	}
}
