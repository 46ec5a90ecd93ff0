// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

import "reflect"

// DoCtrl is the VM's internal instruction set: a marker interface over
// every node kind, dispatched by type switch rather than a separate tag
// field read through reflection. Every node also carries a frozen
// ctrlTag discriminant; the evaluator and [Classify] do not read it
// (Classify uses an interface assertion).
//
// FlatMap/Map nodes carry their continuation inline as a closure; when
// evaluated, that closure is pushed onto the segment's contFrame stack,
// so a segment's pending work is its current DoCtrl plus that stack
// (see segment.go).
type DoCtrl interface {
	ctrlTag() ctrlTag
}

type ctrlTag uint8

const (
	tagPure ctrlTag = iota
	tagApply
	tagMap
	tagFlatMap
	tagPipeline
	tagPerform
	tagWithHandler
	tagWithIntercept
	tagMask
	tagMaskBehind
	tagResume
	tagTransfer
	tagTransferThrow
	tagDelegate
	tagPass
	tagGetContinuation
	tagGetHandlers
	tagGetCallStack
	tagGetTraceback
	tagCreateContinuation
	tagResumeContinuation
	tagEval
	tagFinally
	tagAsyncEscape
	tagThrowHost
)

// Pure wraps a literal value; evaluating it yields Value with no effect.
type Pure struct{ Value any }

func (Pure) ctrlTag() ctrlTag { return tagPure }

// Callable is the F-bounded-free substitute for cross-language opaque
// callables (design note §9): every kind of invocable value — a Go
// closure, a registered handler's return clause, a host-supplied
// factory — implements this single interface, so Apply never needs a
// variant per callable kind.
type Callable interface {
	Call(args []any, kwargs map[string]any) DoCtrl
}

// CallableFunc adapts a plain Go func to Callable.
type CallableFunc func(args []any, kwargs map[string]any) DoCtrl

func (f CallableFunc) Call(args []any, kwargs map[string]any) DoCtrl { return f(args, kwargs) }

// Apply calls F with left-to-right evaluated Args/Kwargs. When
// EvaluateResult is true, the Callable's return value is itself
// evaluated as a DoCtrl node (used for handler return clauses that
// produce further control expressions).
type Apply struct {
	F              Callable
	Args           []DoCtrl
	Kwargs         map[string]DoCtrl
	Meta           *CallMeta
	EvaluateResult bool
}

func (Apply) ctrlTag() ctrlTag { return tagApply }

// Map applies a pure function to the result of Source (functor map).
type Map struct {
	Source DoCtrl
	F      func(any) any
}

func (Map) ctrlTag() ctrlTag { return tagMap }

// FlatMap sequences Source into Binder (monadic bind).
type FlatMap struct {
	Source DoCtrl
	Binder func(any) DoCtrl
}

func (FlatMap) ctrlTag() ctrlTag { return tagFlatMap }

// Pipeline evaluates a lazy sequence of DoCtrl nodes supplied by the
// host. Stream is the out-of-scope external collaborator boundary
// (§1, §6's "host coroutine-to-IR lifting"); the VM only knows the
// Start/Send/Throw contract in callframe.go.
type Pipeline struct{ Stream Stream }

func (Pipeline) ctrlTag() ctrlTag { return tagPipeline }

// Perform requests dispatch of an effect through the installed handler
// chain.
type Perform struct{ Effect Effect }

func (Perform) ctrlTag() ctrlTag { return tagPerform }

// WithHandler installs H around Body. ReturnClause, if non-nil, is
// applied to Body's final value instead of returning it unchanged
// (Open Question 1: ReturnClause is a plain func, not a Kleisli).
type WithHandler struct {
	Handler      Handler
	Body         DoCtrl
	ReturnClause func(any) any
}

func (WithHandler) ctrlTag() ctrlTag { return tagWithHandler }

// WithIntercept installs an observer around Body; see intercept.go.
type WithIntercept struct {
	Interceptor Interceptor
	Body        DoCtrl
}

func (WithIntercept) ctrlTag() ctrlTag { return tagWithIntercept }

// Mask skips the next matching handler above Body for the listed effect
// types (Open Question 2: kept, not deleted — see mask.go).
type Mask struct {
	Types []reflect.Type
	Body  DoCtrl
}

func (Mask) ctrlTag() ctrlTag { return tagMask }

// MaskBehind skips the handler *behind* the next matching one.
type MaskBehind struct {
	Types []reflect.Type
	Body  DoCtrl
}

func (MaskBehind) ctrlTag() ctrlTag { return tagMaskBehind }

// Resume consumes K (call-resume): a fresh segment is linked under the
// current one and the snapshot resumes there.
type Resume struct {
	K     *Continuation
	Value any
}

func (Resume) ctrlTag() ctrlTag { return tagResume }

// Transfer consumes K in tail position, abandoning the prior chain.
type Transfer struct {
	K     *Continuation
	Value any
}

func (Transfer) ctrlTag() ctrlTag { return tagTransfer }

// TransferThrow is Transfer but throws Exc into K.
type TransferThrow struct {
	K   *Continuation
	Exc error
}

func (TransferThrow) ctrlTag() ctrlTag { return tagTransferThrow }

// Delegate re-performs Effect (or the current dispatch's effect, when
// Effect is nil) on the next outer handler; non-terminal — the result
// flows back to this handler.
type Delegate struct{ Effect Effect }

func (Delegate) ctrlTag() ctrlTag { return tagDelegate }

// Pass hands Effect (or the current effect, when nil) to the next outer
// handler terminally — this handler is done with the dispatch.
type Pass struct{ Effect Effect }

func (Pass) ctrlTag() ctrlTag { return tagPass }

// GetContinuation introspects the current dispatch's user continuation.
type GetContinuation struct{}

func (GetContinuation) ctrlTag() ctrlTag { return tagGetContinuation }

// GetHandlers introspects the installed handler chain.
type GetHandlers struct{}

func (GetHandlers) ctrlTag() ctrlTag { return tagGetHandlers }

// GetCallStack introspects the current segment's caller chain.
type GetCallStack struct{}

func (GetCallStack) ctrlTag() ctrlTag { return tagGetCallStack }

// GetTraceback introspects K's delegation/spawn chain.
type GetTraceback struct{ K *Continuation }

func (GetTraceback) ctrlTag() ctrlTag { return tagGetTraceback }

// CreateContinuation constructs an unstarted continuation from Expr and
// Handlers without evaluating it.
type CreateContinuation struct {
	Expr     DoCtrl
	Handlers []Handler
}

func (CreateContinuation) ctrlTag() ctrlTag { return tagCreateContinuation }

// ResumeContinuation resumes K (started or unstarted) with Value.
type ResumeContinuation struct {
	K     *Continuation
	Value any
}

func (ResumeContinuation) ctrlTag() ctrlTag { return tagResumeContinuation }

// Eval is atomic create+resume in a fresh scope.
type Eval struct {
	Expr     DoCtrl
	Handlers []Handler
}

func (Eval) ctrlTag() ctrlTag { return tagEval }

// Finally guarantees Cleanup runs whether Body exits normally or
// abnormally.
type Finally struct {
	Body    DoCtrl
	Cleanup DoCtrl
}

func (Finally) ctrlTag() ctrlTag { return tagFinally }

// AsyncAwaiter is the out-of-scope async I/O collaborator boundary:
// whatever runs a Go coroutine/future to completion under the async
// driver.
type AsyncAwaiter interface {
	Await() (any, error)
}

// AsyncEscape requests the host event loop await Action; valid only
// under AsyncRun.
type AsyncEscape struct{ Action AsyncAwaiter }

func (AsyncEscape) ctrlTag() ctrlTag { return tagAsyncEscape }

// ThrowHost aborts the current segment's evaluation with a host
// exception — the entry point a host calls to report a native Go error
// into the step loop's Throw(e) mode without holding a continuation
// handle.
type ThrowHost struct{ Err error }

func (ThrowHost) ctrlTag() ctrlTag { return tagThrowHost }

// CallMeta carries optional stack-trace metadata for Apply/continuation
// capture.
type CallMeta struct {
	Name string
	Pos  string
}

// chain splices `second` after `first` evaluates. Pure is the identity
// element, so chaining after a Pure just returns the other side,
// avoiding a wrapper allocation.
func chain(first, second DoCtrl) DoCtrl {
	if p, ok := first.(Pure); ok {
		if second == nil {
			return p
		}
		return second
	}
	if second == nil {
		return first
	}
	return FlatMap{Source: first, Binder: func(any) DoCtrl { return second }}
}
