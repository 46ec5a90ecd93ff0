// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

import (
	"sync"

	"github.com/google/uuid"
)

// Standard scheduling effects (§4.8). A program performs these and
// gets them serviced by the scheduler's standard handler (installed by
// Run/AsyncRun around the whole top-level program, §6.1); nothing here
// spawns a goroutine — every task is just another independent segment
// chain living in the same arena, and "concurrency" is the scheduler
// choosing which one is current.

type Spawn struct {
	Expr     DoCtrl
	Handlers []Handler
}

func (Spawn) EffectKind() string { return "Spawn" }

type Wait struct{ Task TaskId }

func (Wait) EffectKind() string { return "Wait" }

type Gather struct{ Tasks []TaskId }

func (Gather) EffectKind() string { return "Gather" }

type Race struct{ Tasks []TaskId }

func (Race) EffectKind() string { return "Race" }

type Cancel struct{ Task TaskId }

func (Cancel) EffectKind() string { return "Cancel" }

type SchedulerYield struct{}

func (SchedulerYield) EffectKind() string { return "SchedulerYield" }

type TaskCompleted struct{ Task TaskId }

func (TaskCompleted) EffectKind() string { return "TaskCompleted" }

type CreatePromise struct{}

func (CreatePromise) EffectKind() string { return "CreatePromise" }

type CreateExternalPromise struct{}

func (CreateExternalPromise) EffectKind() string { return "CreateExternalPromise" }

// ExternalPromiseId is what CreateExternalPromise resumes with: the
// internal PromiseId used for AwaitPromise/Wait inside this VM, paired
// with a uuid.UUID a host may hand to another process and later
// resolve back to this promise via VM.CompleteExternalPromise.
type ExternalPromiseId struct {
	PromiseId PromiseId
	UUID      uuid.UUID
}

type CompletePromise struct {
	P     PromiseId
	Value any
}

func (CompletePromise) EffectKind() string { return "CompletePromise" }

type FailPromise struct {
	P   PromiseId
	Err error
}

func (FailPromise) EffectKind() string { return "FailPromise" }

type AwaitPromise struct{ P PromiseId }

func (AwaitPromise) EffectKind() string { return "AwaitPromise" }

// scheduler is the cooperative, single-threaded task scheduler of
// §4.8. Every method here runs on the step loop's own goroutine except
// settle as reached from VM.CompleteExternalPromise, which a host may call
// from another goroutine to settle an external promise — hence the
// mutex-guarded wake list.
type scheduler struct {
	vm        *VM
	seq       idSeq
	tasks     map[TaskId]*task
	segToTask map[SegmentId]TaskId
	ready     []TaskId
	mainTask  TaskId
	current   TaskId

	proms *promiseRegistry

	wakeMu   sync.Mutex
	wakeList []func()
}

// schedulerHandler is the standard handler servicing every effect in
// this file; Run/AsyncRun install it outermost (§6.1) so a user
// program's own handlers are always tried first.
func schedulerHandler(vm *VM) Handler {
	return HandlerFunc(func(eff Effect, k *Continuation) DoCtrl {
		s := vm.sched
		switch e := eff.(type) {
		case Spawn:
			t, err := s.spawn(e.Expr, e.Handlers)
			if err != nil {
				return TransferThrow{K: k, Exc: err}
			}
			return Resume{K: k, Value: t.id}
		case Wait:
			// A Wait is a Race over one task: it resumes with that task's
			// own value, not a map.
			return s.wait(k, []TaskId{e.Task}, true)
		case Gather:
			return s.wait(k, e.Tasks, false)
		case Race:
			return s.wait(k, e.Tasks, true)
		case Cancel:
			s.cancel(e.Task)
			return Resume{K: k, Value: Unit{}}
		case SchedulerYield:
			return s.doYield(k)
		case TaskCompleted:
			return Resume{K: k, Value: s.isDone(e.Task)}
		case CreatePromise:
			return Resume{K: k, Value: s.proms.create(false).id}
		case CreateExternalPromise:
			p := s.proms.create(true)
			return Resume{K: k, Value: ExternalPromiseId{PromiseId: p.id, UUID: p.extID}}
		case CompletePromise:
			s.settle(e.P, e.Value, nil)
			return Resume{K: k, Value: Unit{}}
		case FailPromise:
			s.settle(e.P, nil, e.Err)
			return Resume{K: k, Value: Unit{}}
		case AwaitPromise:
			return s.awaitPromise(k, e.P)
		default:
			return Pass{Effect: eff}
		}
	})
}

// spawn creates a new task with its own root segment (no caller: an
// independent execution, not a nested call) and queues it ready.
// Refuses beyond vm.maxTasks (internal/vmconfig's MaxTasks, 0 = unbounded).
func (s *scheduler) spawn(expr DoCtrl, handlers []Handler) (*task, error) {
	live := 0
	for tid := range s.tasks {
		if !s.isDone(tid) {
			live++
		}
	}
	if s.vm.maxTasks > 0 && live >= s.vm.maxTasks {
		return nil, newVMError("Spawn", ErrTaskLimitExceeded, "%d tasks already live (max %d)", live, s.vm.maxTasks)
	}
	id := TaskId(s.seq.alloc())
	// A spawned task's root segment has no caller, so handlerWalk can
	// never see past it — rewrap with the same standard handler stack
	// start() installed around the top-level program (§4.8).
	full := append(append([]Handler(nil), s.vm.standardHandlers...), handlers...)
	body := installHandlersOuterFirst(expr, full)
	rootID := s.vm.arena.alloc(segment{kind: kindNormal, prog: body})
	t := &task{id: id, root: rootID, status: taskReady, state: map[string]any{}}
	s.tasks[id] = t
	s.segToTask[rootID] = id
	s.ready = append(s.ready, id)
	return t, nil
}

func (s *scheduler) isDone(id TaskId) bool {
	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	return t.status == taskDone || t.status == taskFailed || t.status == taskCancelled
}

// wait blocks the calling continuation on ids completing (race=true:
// the first one wins and the rest are left running). It resumes
// immediately when the outcome is already known: every target settled,
// or (race) any one target done. A target that already failed or was
// cancelled throws its error into k.
func (s *scheduler) wait(k *Continuation, ids []TaskId, race bool) DoCtrl {
	w := &waiter{owner: s.current, k: k, results: make(map[TaskId]any), race: race}
	pending := 0
	for _, id := range ids {
		t, ok := s.tasks[id]
		if !ok {
			return ThrowHost{Err: newVMError("Wait", ErrInvalidTaskTransition, "unknown task %d", id)}
		}
		if s.isDone(id) {
			if t.err != nil {
				w.satisfied = true
				return TransferThrow{K: k, Exc: t.err}
			}
			w.results[id] = t.result
			if race {
				w.satisfied = true
				return Resume{K: k, Value: t.result}
			}
			continue
		}
		t.waiters = append(t.waiters, w)
		pending++
	}
	if pending == 0 {
		return Resume{K: k, Value: waitResultValue(w, ids)}
	}
	w.pending = pending
	return s.blockCurrentAndSwitch()
}

func waitResultValue(w *waiter, ids []TaskId) any {
	if w.race {
		for _, id := range ids {
			if v, ok := w.results[id]; ok {
				return v
			}
		}
		return nil
	}
	out := make(map[TaskId]any, len(ids))
	for _, id := range ids {
		out[id] = w.results[id]
	}
	return out
}

func (s *scheduler) cancel(id TaskId) {
	t, ok := s.tasks[id]
	if !ok || s.isDone(id) {
		return
	}
	t.status = taskCancelled
	t.err = ErrTaskCancelled
	for i, r := range s.ready {
		if r == id {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			break
		}
	}
	s.wake(t, nil, ErrTaskCancelled)
}

// doYield puts the calling task back at the end of the ready queue and
// switches to whichever task is next.
func (s *scheduler) doYield(k *Continuation) DoCtrl {
	if len(s.ready) == 0 {
		return Resume{K: k, Value: nil}
	}
	s.readyResume(s.current, k, nil, nil)
	return s.blockCurrentAndSwitch()
}

// blockCurrentAndSwitch marks the current segment blocked in place (it
// stays in the arena, reachable again once woken) and redirects
// vm.arena.current to the next ready task, or errors with ErrDeadlock
// if none remain.
func (s *scheduler) blockCurrentAndSwitch() DoCtrl {
	s.drainWakes()
	if len(s.ready) == 0 {
		return ThrowHost{Err: newVMError("scheduler", ErrDeadlock, "no runnable task")}
	}
	if cur, ok := s.tasks[s.current]; ok {
		cur.status = taskBlocked
	}
	next := s.ready[0]
	s.ready = s.ready[1:]
	s.switchTo(next)
	return Pure{}
}

// switchTo saves the outgoing task's state/log snapshot (invariant 7,
// §8.1: a blocked task's state/log live in its own TaskStore, not the
// shared store) and restores the incoming task's own snapshot into
// vm.store before redirecting the arena.
func (s *scheduler) switchTo(next TaskId) {
	if cur, ok := s.tasks[s.current]; ok {
		cur.state, cur.log = s.vm.store.snapshotState()
	}
	t := s.tasks[next]
	t.status = taskRunning
	s.vm.store.restoreState(t.state, t.log)
	s.current = next
	s.vm.arena.current, s.vm.arena.hasCurrent = t.root, true
}

// settle resolves a promise and wakes anyone waiting on it. For an
// external promise this may be called from another goroutine, so
// waking is deferred onto wakeList and drained the next time the step
// loop blocks or finishes a task (drainWakes).
func (s *scheduler) settle(id PromiseId, value any, err error) {
	p, ok := s.proms.get(id)
	if !ok {
		return
	}
	woken := p.settle(value, err)
	if len(woken) == 0 {
		return
	}
	s.wakeMu.Lock()
	for _, w := range woken {
		w := w
		s.wakeList = append(s.wakeList, func() { s.resolveWaiterFromPromise(w, p) })
	}
	s.wakeMu.Unlock()
}

func (s *scheduler) resolveWaiterFromPromise(w *waiter, p *promise) {
	status, value, err := p.snapshot()
	if status == promiseRejected {
		s.readyResume(w.owner, w.k, nil, err)
		return
	}
	s.readyResume(w.owner, w.k, value, nil)
}

// awaitPromise blocks on a promise exactly like wait blocks on a task.
func (s *scheduler) awaitPromise(k *Continuation, id PromiseId) DoCtrl {
	p, ok := s.proms.get(id)
	if !ok {
		return ThrowHost{Err: newVMError("AwaitPromise", ErrInvalidTaskTransition, "unknown promise %d", id)}
	}
	status, value, err := p.snapshot()
	if status != promisePending {
		if status == promiseRejected {
			return TransferThrow{K: k, Exc: err}
		}
		return Resume{K: k, Value: value}
	}
	w := &waiter{owner: s.current, k: k, pending: 1}
	if !p.addWaiter(w) {
		status, value, err = p.snapshot()
		if status == promiseRejected {
			return TransferThrow{K: k, Exc: err}
		}
		return Resume{K: k, Value: value}
	}
	return s.blockCurrentAndSwitch()
}

// readyResume re-arms the waiting task owner's own root segment to
// replay Resume/TransferThrow the next time it is scheduled, and queues
// it ready. Reusing the owner's TaskId (rather than minting a new one)
// matters because a Wait/Gather/Race/Cancel targeting owner must keep
// naming the same task across this suspend/resume cycle (§8.1
// invariant 7's TaskStore is keyed by TaskId, not by segment).
func (s *scheduler) readyResume(owner TaskId, k *Continuation, value any, err error) {
	var body DoCtrl
	if err != nil {
		body = TransferThrow{K: k, Exc: err}
	} else {
		body = Resume{K: k, Value: value}
	}
	t, ok := s.tasks[owner]
	if !ok || t.status == taskCancelled {
		return
	}
	delete(s.segToTask, t.root)
	s.vm.arena.free_(t.root)
	rootID := s.vm.arena.alloc(segment{kind: kindNormal, prog: body})
	t.root = rootID
	t.status = taskReady
	s.segToTask[rootID] = owner
	s.ready = append(s.ready, owner)
}

// drainWakes runs any pending external-promise wakeups queued by
// settle from another goroutine.
func (s *scheduler) drainWakes() {
	s.wakeMu.Lock()
	pending := s.wakeList
	s.wakeList = nil
	s.wakeMu.Unlock()
	for _, f := range pending {
		f()
	}
}

// wake resolves every waiter blocked on t (task completion), scheduling
// each to resume via a relay task the next time it is picked up.
func (s *scheduler) wake(t *task, result any, err error) {
	for _, w := range t.waiters {
		if w.satisfied {
			continue
		}
		w.pending--
		if err != nil {
			w.results[t.id] = nil
		} else {
			w.results[t.id] = result
		}
		if err != nil {
			w.satisfied = true
			s.readyResume(w.owner, w.k, nil, err)
			continue
		}
		if w.race || w.pending == 0 {
			w.satisfied = true
			s.readyResume(w.owner, w.k, waitResultValueFromWaiter(w), nil)
		}
	}
	t.waiters = nil
}

func waitResultValueFromWaiter(w *waiter) any {
	if w.race {
		for _, v := range w.results {
			return v
		}
		return nil
	}
	out := make(map[TaskId]any, len(w.results))
	for k, v := range w.results {
		out[k] = v
	}
	return out
}

// completeTask finishes task id with value or err, waking its waiters
// and advancing the scheduler to the next runnable task. Returns true
// iff id was the top-level run's own task (the whole VM run is done).
func (s *scheduler) completeTask(id TaskId, value any, err error) bool {
	t := s.tasks[id]
	if err != nil {
		t.status = taskFailed
		t.err = err
	} else {
		t.status = taskDone
		t.result = value
	}
	s.wake(t, value, err)

	if id == s.mainTask {
		return true
	}

	s.drainWakes()
	if len(s.ready) == 0 {
		s.vm.arena.hasCurrent = false
		return false
	}
	next := s.ready[0]
	s.ready = s.ready[1:]
	s.switchTo(next)
	return false
}
