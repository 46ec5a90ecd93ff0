// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package kont implements a virtual machine for algebraic effects and
// one-shot delimited continuations over a dynamically typed instruction
// set.
//
// The core type [DoCtrl] represents one node of a program: a pure
// value, a monadic bind, a performed effect, a handler installation, or
// a continuation resume/transfer. A [VM] reduces a DoCtrl tree one step
// at a time, dispatching performed [Effect] values through an
// installed [Handler] chain.
//
// # Design Philosophy
//
// kont provides:
//   - A single dynamically typed instruction set instead of a family of
//     compile-time-typed monad transformers
//   - Affine (one-shot) continuations: capturing and resuming are
//     explicit VM operations, not closures over the host stack
//   - A cooperative, single-threaded task scheduler for structured
//     concurrency, sharing the same step loop as ordinary evaluation
//
// # Core Operations
//
// Minimal control nodes:
//
//   - [Pure]: Lift a literal value with no effect
//   - [FlatMap]: Sequence a Source into a Binder (monadic bind)
//   - [Map]: Apply a pure function to Source's result
//   - [Finally]: Guarantee Cleanup runs on both normal and abrupt exit
//
// Execution:
//
//   - [Run]: Execute a program to completion synchronously
//   - [AsyncRun]: Execute a program, awaiting AsyncEscape nodes in place
//
// # Stepping Boundary
//
// Internally, a VM's unexported step method reduces DoCtrl nodes until
// the program finishes, errors, or needs host input, and reports that
// as a [StepOutcome]; [Run]/[AsyncRun] are the drivers that loop a VM
// to completion.
//
//   - [StepOutcome]: The result of one step — done, suspended on a host
//     request, or errored
//   - [StepTag]: Discriminates StepOutcome; step reports StepDone,
//     StepNeedsHost or StepError and never StepContinue
//
// # Algebraic Effects
//
// Effects are values implementing [Effect]; handlers interpret them via
// [Handler], a Kleisli arrow from (effect, continuation) to the next
// control expression.
//
//   - [Effect]: Marker interface for performable effect values
//   - [Handler]: Effect interpreter: (Effect, *Continuation) -> DoCtrl
//   - [HandlerFunc]: Adapts a plain func literal to Handler
//   - [Perform]: Trigger an effect through the installed handler chain
//   - [Resume], [Transfer], [TransferThrow]: Consume a continuation to
//     continue, tail-transfer, or throw into the caller
//   - [Delegate], [Pass]: Hand an effect to the next outer handler,
//     non-terminally or terminally
//
// # Standard Effects
//
// State effect for mutable state threading, keyed by string rather than
// fixed to one compile-time type:
//
//   - [StateGet], [StatePut], [StateModify]: Effect operations
//
// Reader effect for read-only environment lookup, keyed by arbitrary
// hashable key:
//
//   - [ReaderAsk]: Effect operation
//
// Writer effect for accumulating output (logging, tracing):
//
//   - [WriterTell]: Effect operation
//
// # Structured Concurrency
//
// The scheduler runs independent root segments as cooperative tasks:
//
//   - [Spawn]: Launch a new task running Expr
//   - [Wait], [Gather], [Race]: Block on one task, all of several, or
//     the first of several
//   - [Cancel]: Abort a task, reporting ErrTaskCancelled to its waiters
//   - [SchedulerYield]: Cooperatively yield to another ready task
//   - [CreatePromise], [CompletePromise], [FailPromise], [AwaitPromise]:
//     A settleable value other tasks can await
//   - [CreateExternalPromise]: A promise additionally identified by a
//     cross-process UUID, settled from outside the step loop via
//     [VM.CompleteExternalPromise]
//
// # Resource Safety and Masking
//
//   - [Finally]: Cleanup runs whether Body returns or throws
//   - [Mask], [MaskBehind]: Hide a handler (or the one behind it) from a
//     region of the program
//   - [WithIntercept]: Observe effects performed in a region before
//     normal dispatch
//
// # Either Type
//
// [Either] represents success (Right) or failure (Left), the shape of
// [RunResult.Result]:
//
//   - [Left], [Right]: Constructors
//   - [Either.GetLeft], [Either.GetRight]: Accessors
package kont
