// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// RunResult is the immutable record returned by Run/AsyncRun (§6.6).
// Result is a minimal Either rather than a bare (value, error) pair, so
// a caller cannot read a zero value and a nil error as success by
// accident. RawStore contains only the state layer, never env or log
// (§6.6).
type RunResult struct {
	Result   Either[error, any]
	RawStore map[string]any
}

// Either represents a value that is either Left (failure) or Right
// (success), trimmed to the accessors RunResult actually needs.
type Either[E, A any] struct {
	isRight bool
	left    E
	right   A
}

func Left[E, A any](e E) Either[E, A]  { return Either[E, A]{isRight: false, left: e} }
func Right[E, A any](a A) Either[E, A] { return Either[E, A]{isRight: true, right: a} }

// GetRight returns the Right value and true, or zero and false.
func (e Either[E, A]) GetRight() (A, bool) {
	if e.isRight {
		return e.right, true
	}
	var zero A
	return zero, false
}

// GetLeft returns the Left value and true, or zero and false.
func (e Either[E, A]) GetLeft() (E, bool) {
	if !e.isRight {
		return e.left, true
	}
	var zero E
	return zero, false
}

func okResult(value any, state map[string]any) RunResult {
	return RunResult{Result: Right[error, any](value), RawStore: state}
}

func errResult(err error, state map[string]any) RunResult {
	return RunResult{Result: Left[error, any](err), RawStore: state}
}
