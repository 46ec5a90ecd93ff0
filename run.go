// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// Run executes program to completion synchronously (§6.1). handlers
// nest outermost-first (handlers[0] is tried last, ahead only of the
// standard state/reader/writer/scheduler handlers installed beneath
// every user handler). program accepts a DoCtrl node or a raw Effect
// (normalized to Perform); any other type is a boundary type error
// (§6.7), reported as RunResult.Result = Left(err) rather than panicking.
func Run(program any, handlers []Handler, env map[any]any, store map[string]any) RunResult {
	vm := NewVM(store, env)
	return vm.run(program, handlers)
}

// AsyncRun executes program like Run, but additionally awaits any
// AsyncEscape nodes by calling their Action synchronously in place
// before resuming — the in-process stand-in for "awaits async escapes
// in the host event loop" (§6.1) when the caller has no event loop of
// its own to hand StepNeedsHost/hostCallAsync requests to.
func AsyncRun(program any, handlers []Handler, env map[any]any, store map[string]any) RunResult {
	vm := NewVM(store, env)
	return vm.runAsync(program, handlers)
}

// run drives vm.step() to completion, resolving every StepNeedsHost
// request it is equipped to resolve inline (Stream is already inline
// via pipeline.go; an AsyncEscape surfacing here is a boundary error,
// since Run promises no event loop to await it).
func (vm *VM) run(program any, handlers []Handler) RunResult {
	if err := vm.start(program, handlers); err != nil {
		state, _ := vm.store.snapshotState()
		return errResult(err, state)
	}
	for {
		out := vm.step()
		switch out.Tag {
		case StepDone:
			state, _ := vm.store.snapshotState()
			return okResult(out.Value, state)
		case StepError:
			state, _ := vm.store.snapshotState()
			return errResult(out.Err, state)
		case StepNeedsHost:
			if out.Host.kind == hostCallAsync {
				state, _ := vm.store.snapshotState()
				return errResult(newVMError("Run", ErrBridgeProtocol, "AsyncEscape under synchronous Run; use AsyncRun"), state)
			}
			// Stream requests resolve entirely inline in pipeline.go;
			// reaching here with any other host kind is a fatal bug.
			state, _ := vm.store.snapshotState()
			return errResult(newVMError("Run", ErrArenaCorruption, "unexpected host request kind %v", out.Host.kind), state)
		}
	}
}

// runAsync is run's counterpart that services hostCallAsync requests by
// calling Action.Await() in place and feeding the outcome back in.
func (vm *VM) runAsync(program any, handlers []Handler) RunResult {
	if err := vm.start(program, handlers); err != nil {
		state, _ := vm.store.snapshotState()
		return errResult(err, state)
	}
	for {
		out := vm.step()
		switch out.Tag {
		case StepDone:
			state, _ := vm.store.snapshotState()
			return okResult(out.Value, state)
		case StepError:
			state, _ := vm.store.snapshotState()
			return errResult(out.Err, state)
		case StepNeedsHost:
			if out.Host.kind != hostCallAsync {
				state, _ := vm.store.snapshotState()
				return errResult(newVMError("AsyncRun", ErrArenaCorruption, "unexpected host request kind %v", out.Host.kind), state)
			}
			value, err := out.Host.async.Await()
			vm.resolveAsync(out.Host.segment, value, err)
		}
	}
}

// start validates program/handlers (§6.7), installs the standard
// state/reader/writer/scheduler handlers beneath the user-supplied
// ones, registers the top-level run as the scheduler's main task, and
// puts the VM's arena into its initial running state.
func (vm *VM) start(program any, handlers []Handler) error {
	if err := validateHandlers(handlers); err != nil {
		return err
	}
	ctrl, err := normalizeProgram(program)
	if err != nil {
		return err
	}
	vm.standardHandlers = []Handler{stateVMHandler(vm), readerVMHandler(vm), writerVMHandler(vm), schedulerHandler(vm)}
	full := append(append([]Handler(nil), vm.standardHandlers...), handlers...)
	body := installHandlersOuterFirst(ctrl, full)
	rootID := vm.arena.alloc(segment{kind: kindNormal, prog: body})
	mainID := TaskId(vm.sched.seq.alloc())
	vm.sched.tasks[mainID] = &task{id: mainID, root: rootID, status: taskRunning}
	vm.sched.segToTask[rootID] = mainID
	vm.sched.mainTask = mainID
	vm.sched.current = mainID
	vm.arena.current, vm.arena.hasCurrent = rootID, true
	return nil
}
