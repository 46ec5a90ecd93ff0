// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

import "code.hybscloud.com/kont/internal/vmconfig"

// VM owns one run's worth of mutable state: the segment arena, the
// continuation and handler registries, the in-flight dispatch stack,
// the typed store, and the cooperative scheduler (§3.1, §4.8). It is
// not safe for concurrent use from multiple goroutines — the whole
// point of the design is that a single step loop drives everything
// (§9's "resumes and transfers are state transitions, not nested
// recursion").
type VM struct {
	arena *arena
	conts *contRegistry

	handlers  map[Marker]*handlerEntry
	markerSeq idSeq

	dispatchStack []*dispatchContext
	dispatchSeq   idSeq

	store *typedStore

	sched *scheduler

	// standardHandlers are state/reader/writer/scheduler (§4.7, §4.8),
	// installed outermost around the top-level program by start(); every
	// Spawn body is wrapped with the same list so a spawned task's own
	// root segment (no caller — it cannot see the main task's handler
	// chain) still resolves Get/Put/Ask/Tell/Spawn/... the same way.
	standardHandlers []Handler

	// maxTasks caps live scheduler tasks (internal/vmconfig's
	// MaxTasks); zero means unbounded. Checked by scheduler.spawn.
	maxTasks int

	trace func(event string, detail any)
}

// Configure applies host-supplied runtime tunables (internal/vmconfig,
// loaded from YAML) before the first Run/AsyncRun call. MaxTasks caps
// concurrent scheduler tasks (0 = unbounded, scheduler.go's spawn).
// RoundRobinSeed is accepted but currently unused: the scheduler's
// ready queue is already a deterministic FIFO (§4.8), so there is no
// randomness for a seed to fix — reserved for a future scheduling
// policy that needs one. TraceEnabled wires trace into vm.trace, the
// same sink Trace installs directly.
func (vm *VM) Configure(cfg vmconfig.Config, trace func(event string, detail any)) {
	vm.maxTasks = cfg.MaxTasks
	if cfg.TraceEnabled && trace != nil {
		vm.trace = trace
	}
}

// NewVM creates a VM ready to run a top-level program via Run/AsyncRun
// (§6.1). initialState and env seed the typed store (§3.7); either may
// be nil.
func NewVM(initialState map[string]any, env map[any]any) *VM {
	vm := &VM{
		arena:    newArena(),
		conts:    newContRegistry(),
		handlers: make(map[Marker]*handlerEntry),
		store:    newTypedStore(initialState, env),
	}
	vm.sched = newScheduler(vm)
	return vm
}

// Trace installs the sink that emit forwards events to; nil removes it.
// No step-loop, dispatch or scheduler code calls emit, so an installed
// sink receives no events.
func (vm *VM) Trace(f func(event string, detail any)) { vm.trace = f }

func (vm *VM) emit(event string, detail any) {
	if vm.trace != nil {
		vm.trace(event, detail)
	}
}
