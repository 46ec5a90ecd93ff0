// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// normalizeProgram validates Run/AsyncRun's `program` parameter (§6.1,
// §6.7): an IR node is accepted as-is, a raw Effect is wrapped in
// Perform, and anything else is a boundary type error naming both the
// actual and expected types.
func normalizeProgram(program any) (DoCtrl, error) {
	switch p := program.(type) {
	case DoCtrl:
		return p, nil
	case Effect:
		return Perform{Effect: p}, nil
	default:
		return nil, TypeError("Run", program, "DoCtrl or Effect")
	}
}

// validateHandlers checks every entry of a handler list is non-nil,
// per §6.7's "validated at entry with concrete type checks, never duck-
// typed" — a nil Handler would otherwise panic deep inside the first
// dispatch that reaches it instead of at the call boundary.
func validateHandlers(handlers []Handler) error {
	for i, h := range handlers {
		if h == nil {
			return newVMError("Run", ErrTypeError, "handlers[%d] is nil, want a non-nil Handler", i)
		}
	}
	return nil
}
