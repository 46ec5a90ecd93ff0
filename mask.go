// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

import "reflect"

// installMask creates a MaskBoundary segment over body that hides the
// next matching handler above it for each effect type listed (§4.9).
func (vm *VM) installMask(types []reflect.Type, body DoCtrl) SegmentId {
	set := make(map[reflect.Type]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	cur := vm.arena.currentSegment()
	s := segment{
		kind:        kindMaskBoundary,
		maskedTypes: set,
		hasCaller:   true,
		caller:      cur.id,
		prog:        body,
		scope:       append([]Marker(nil), cur.scope...),
	}
	return vm.arena.alloc(s)
}

// installMaskBehind creates a MaskBoundary segment that hides the
// handler *behind* the next matching one — the next matching handler
// still runs normally, and the one after it is skipped (§4.9).
func (vm *VM) installMaskBehind(types []reflect.Type, body DoCtrl) SegmentId {
	set := make(map[reflect.Type]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	cur := vm.arena.currentSegment()
	s := segment{
		kind:            kindMaskBoundary,
		maskBehindTypes: set,
		hasCaller:       true,
		caller:          cur.id,
		prog:            body,
		scope:           append([]Marker(nil), cur.scope...),
	}
	return vm.arena.alloc(s)
}
