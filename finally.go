// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// evalFinally pushes a continuation frame that runs Cleanup before
// passing the Body's value through, then starts evaluating Body. The
// frame also carries Cleanup directly so unwindThrow can run it on the
// abrupt-exit path too (§5's resource-safety requirement: Cleanup runs
// whether Body returns or throws).
func (vm *VM) evalFinally(seg *segment, c Finally) Mode {
	seg.cont = append(seg.cont, contFrame{
		binder: func(v any) DoCtrl {
			return FlatMap{Source: c.Cleanup, Binder: func(any) DoCtrl { return Pure{Value: v} }}
		},
		cleanup: c.Cleanup,
	})
	seg.prog = c.Body
	return handleYieldMode(seg.prog)
}

// popFinallyFrame scans cont (top-down, i.e. nearest enclosing first)
// for the first Finally frame, returning its cleanup expression and the
// stack with every frame above and including it removed. Ordinary
// Map/FlatMap frames above the Finally frame are discarded along with
// it: an exception skips pending thens, but not pending cleanups.
func popFinallyFrame(cont []contFrame) (DoCtrl, []contFrame, bool) {
	for i := len(cont) - 1; i >= 0; i-- {
		if cont[i].cleanup != nil {
			return cont[i].cleanup, cont[:i], true
		}
	}
	return nil, nil, false
}
