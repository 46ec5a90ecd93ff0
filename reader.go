// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// Reader effect (§4.7): read-only access to an environment, looked up
// by arbitrary hashable key over the VM's shared env map
// (typedstore.go), which is set once at Run/AsyncRun and never swapped
// across task switches (§8.1 invariant 8).

// ReaderAsk is the VM-level Ask effect operation (§6.2): Perform(ReaderAsk{Key: k})
// resumes with env[k], or nil if unset.
type ReaderAsk struct{ Key any }

func (ReaderAsk) EffectKind() string { return "Ask" }

// readerVMHandler is the standard handler for ReaderAsk.
func readerVMHandler(vm *VM) Handler {
	return HandlerFunc(func(eff Effect, k *Continuation) DoCtrl {
		if e, ok := eff.(ReaderAsk); ok {
			return Resume{K: k, Value: vm.store.ask(e.Key)}
		}
		return Pass{Effect: eff}
	})
}
