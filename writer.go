// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// Writer effect (§4.7): an append-only sequence of `any` over the VM's
// shared typedStore log layer. Per §8.1 invariant 7 the log is
// per-task, like state, and is snapshotted/restored across scheduler
// context switches. There is no VM-level observation effect: §6.6
// notes logs live inside the writer handler unless the user composes
// a logging handler that exposes them.

// WriterTell is the VM-level Tell effect operation (§6.2):
// Perform(WriterTell{Msg: m}) appends m to the log and resumes with Unit{}.
type WriterTell struct{ Msg any }

func (WriterTell) EffectKind() string { return "Tell" }

// writerVMHandler is the standard handler for WriterTell.
func writerVMHandler(vm *VM) Handler {
	return HandlerFunc(func(eff Effect, k *Continuation) DoCtrl {
		if e, ok := eff.(WriterTell); ok {
			vm.store.tell(e.Msg)
			return Resume{K: k, Value: Unit{}}
		}
		return Pass{Effect: eff}
	})
}
