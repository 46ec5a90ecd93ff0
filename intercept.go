// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

import "reflect"

// installIntercept creates a segment over body whose interceptor
// observes every effect performed within before it reaches the normal
// handler walk (§4.9). Unlike Mask, interception never hides a
// handler — it only gets a chance to run first, typically ending in
// Pass or Delegate to continue normal dispatch, or in its own
// Resume/Transfer to short-circuit it.
func (vm *VM) installIntercept(interceptor Interceptor, body DoCtrl) SegmentId {
	cur := vm.arena.currentSegment()
	s := segment{
		kind:         kindNormal,
		hasCaller:    true,
		caller:       cur.id,
		prog:         body,
		scope:        append([]Marker(nil), cur.scope...),
		interceptor:  interceptor,
		hasIntercept: true,
		guard:        cur.guard,
	}
	return vm.arena.alloc(s)
}

// findIntercept walks from start up to (but not including) stop,
// returning the nearest segment with a live interceptor whose guard
// does not already skip effType (bounding interceptor re-entrancy into
// its own performed effects, §4.9).
func (vm *VM) findIntercept(start, stop SegmentId, effType reflect.Type) (*segment, bool) {
	cur := start
	for cur != stop {
		s := vm.arena.get(cur)
		if s.hasIntercept && !guardSkips(s.guard, effType) {
			return s, true
		}
		if !s.hasCaller {
			return nil, false
		}
		cur = s.caller
	}
	return nil, false
}

func guardSkips(g interceptGuard, t reflect.Type) bool {
	for _, s := range g.skipStack {
		if s == t {
			return true
		}
	}
	return false
}

// runIntercept evaluates interceptor(eff) in a fresh child segment
// whose guard additionally skips effType, so an interceptor that
// re-performs the same effect type falls through to the next
// intercept or straight to the handler walk instead of re-triggering
// itself.
func (vm *VM) runIntercept(owner *segment, eff Effect) Mode {
	effType := reflect.TypeOf(eff)
	childGuard := interceptGuard{
		evalDepth: owner.guard.evalDepth + 1,
		skipStack: append(append([]reflect.Type(nil), owner.guard.skipStack...), effType),
	}
	execSeg := segment{
		kind:      kindNormal,
		hasCaller: true,
		caller:    owner.id,
		scope:     append([]Marker(nil), owner.scope...),
		guard:     childGuard,
	}
	execID := vm.arena.alloc(execSeg)
	ir := owner.interceptor(eff)
	vm.arena.get(execID).prog = ir
	vm.arena.current = execID
	vm.arena.hasCurrent = true
	return handleYieldMode(ir)
}
