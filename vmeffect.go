// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// Effect is an opaque data object requesting an externally interpreted
// operation (§4.1). The VM never reads an Effect's fields; handlers
// downcast via a type switch on the concrete type.
//
// EffectKind names the effect as a string; nothing in the VM calls it
// — dispatch always switches on concrete type.
type Effect interface {
	EffectKind() string
}

// Handler is the Kleisli arrow: (effect, k) -> control expression
// (§4.4), carrying the full resume/transfer/delegate/pass vocabulary
// available to DoCtrl rather than a single short-circuiting dispatch
// method.
type Handler func(eff Effect, k *Continuation) DoCtrl

// HandlerFunc adapts a plain func literal to Handler, for call sites
// that prefer a named conversion over a bare func literal.
func HandlerFunc(f func(eff Effect, k *Continuation) DoCtrl) Handler { return Handler(f) }

// Interceptor observes effects performed inside a WithIntercept region
// before they reach handler dispatch (intercept.go). It is not a
// Handler: it cannot short-circuit a dispatch, only transform the
// effect or emit its own effects above the interception boundary.
type Interceptor func(eff Effect) DoCtrl
