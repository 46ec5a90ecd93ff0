// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// State effect (§4.7): mutable state threading through a computation,
// keyed by string rather than fixed to a single compile-time type, so
// handler bodies of any shape can share one State without a type
// parameter pinning what it holds.

// StateGet is the VM-level Get effect operation (§6.2): Perform(StateGet{Key: k})
// resumes with the current value for k, or nil if unset.
type StateGet struct{ Key string }

func (StateGet) EffectKind() string { return "Get" }

// StatePut is the VM-level Put effect operation: writes Value under
// Key and resumes with Unit{}.
type StatePut struct {
	Key   string
	Value any
}

func (StatePut) EffectKind() string { return "Put" }

// StateModify is the VM-level Modify effect operation: applies F to
// the current value under Key, stores the result, and resumes with
// the OLD value (§6.2).
type StateModify struct {
	Key string
	F   func(any) any
}

func (StateModify) EffectKind() string { return "Modify" }

// stateVMHandler is the standard handler installed beneath every
// top-level program and spawned task body (§4.8) for StateGet/StatePut/
// StateModify, backed by the VM's shared typedStore.
func stateVMHandler(vm *VM) Handler {
	return HandlerFunc(func(eff Effect, k *Continuation) DoCtrl {
		switch e := eff.(type) {
		case StateGet:
			return Resume{K: k, Value: vm.store.get(e.Key)}
		case StatePut:
			vm.store.put(e.Key, e.Value)
			return Resume{K: k, Value: Unit{}}
		case StateModify:
			old := vm.store.get(e.Key)
			vm.store.put(e.Key, e.F(old))
			return Resume{K: k, Value: old}
		default:
			return Pass{Effect: eff}
		}
	})
}
