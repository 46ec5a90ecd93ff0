// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

import (
	"errors"
	"fmt"
)

// Error taxonomy (§7), grounded on wudi-hey/vm/errors.go's pattern of
// sentinel errors plus a wrapping context struct: sentinels support
// errors.Is at call sites, the wrapper carries the operation name and
// any underlying cause.

// Sentinel errors identifying each error kind. Each is wrapped by
// *VMError with call-site context before it reaches a caller.
var (
	// ErrTypeError is a boundary type mismatch, malformed IR node, a
	// yielded value outside DoCtrl∪Effect, or a non-exception Resume
	// value during error dispatch.
	ErrTypeError = errors.New("kont: type error")

	// ErrDoubleResume is a contract error: a continuation consumed twice.
	ErrDoubleResume = errors.New("kont: continuation already consumed")

	// ErrWrongResumeKind is a contract error: Transfer/Resume applied to
	// a continuation kind that does not support it (e.g. Transfer on an
	// unstarted continuation, per §4.3).
	ErrWrongResumeKind = errors.New("kont: wrong resume kind for continuation")

	// ErrResumeOutsideDispatch is a contract error: Resume/Delegate/Pass
	// used outside an active dispatch.
	ErrResumeOutsideDispatch = errors.New("kont: resume/delegate/pass outside active dispatch")

	// ErrUnhandledEffect is a dispatch error: no handler in the current
	// chain claims the effect.
	ErrUnhandledEffect = errors.New("kont: unhandled effect")

	// ErrDelegateNoOuterHandler is a dispatch error: Delegate with no
	// outer handler, outside error-context dispatch.
	ErrDelegateNoOuterHandler = errors.New("kont: delegate with no outer handler")

	// ErrDeadlock is a scheduler error: all tasks blocked, no ready
	// waiter, no external completions pending.
	ErrDeadlock = errors.New("kont: scheduler deadlock")

	// ErrTaskCancelled is a scheduler error returned from Wait/Gather on
	// a cancelled task.
	ErrTaskCancelled = errors.New("kont: task cancelled")

	// ErrInvalidTaskTransition is a scheduler error: an invalid task
	// lifecycle transition was attempted (programming error).
	ErrInvalidTaskTransition = errors.New("kont: invalid task state transition")

	// ErrTaskLimitExceeded is a scheduler error: Spawn was performed
	// with vmconfig's MaxTasks already live (§4.8, internal/vmconfig).
	ErrTaskLimitExceeded = errors.New("kont: task limit exceeded")

	// ErrCaptureDuringHostCall is Open Question 4's resolution:
	// captureContinuation (Perform, GetContinuation) panics with it when
	// the segment has a nonempty pending host-call tag.
	ErrCaptureDuringHostCall = errors.New("kont: cannot capture continuation during a pending host call")

	// ErrArenaCorruption is a fatal VM error: a segment invariant was
	// violated.
	ErrArenaCorruption = errors.New("kont: segment arena corruption")

	// ErrBridgeProtocol is a fatal VM error: a NeedsHost/receive_result
	// mismatch (programming bug in the driver).
	ErrBridgeProtocol = errors.New("kont: host bridge protocol violation")
)

// VMError wraps a sentinel with the operation name and optional cause,
// following wudi-hey's VMError{Type, Message, Context} shape.
type VMError struct {
	Op      string
	Message string
	Err     error
}

func (e *VMError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("kont: %s: %s: %s", e.Op, e.Err.Error(), e.Message)
	}
	return fmt.Sprintf("kont: %s: %s", e.Op, e.Err.Error())
}

func (e *VMError) Unwrap() error { return e.Err }

func newVMError(op string, sentinel error, format string, args ...any) *VMError {
	msg := ""
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &VMError{Op: op, Message: msg, Err: sentinel}
}

// TypeError reports a boundary or classification type mismatch naming
// both the actual and expected types, per §6.7's requirement to name
// both and hint at common mistakes.
func TypeError(op string, got any, want string) error {
	hint := ""
	if _, ok := got.(Stream); ok {
		hint = " (got a Stream value — wrap it in Pipeline{Stream: ...})"
	}
	return newVMError(op, ErrTypeError, "got %T, want %s%s", got, want, hint)
}
