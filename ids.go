// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// Opaque, equality-comparable, copyable identifiers allocated for a VM's
// lifetime. Each is a distinct type so a mismatched ID cannot typecheck
// where another kind is expected.

// Marker identifies an installed handler.
type Marker uint64

// SegmentId indexes into a VM's segment arena.
type SegmentId int64

// ContId identifies a continuation in the continuation registry.
type ContId uint64

// DispatchId identifies an in-flight effect dispatch.
type DispatchId uint64

// CallbackId identifies a one-shot slot in the host callback table.
type CallbackId uint64

// TaskId identifies a scheduler task.
type TaskId uint64

// PromiseId identifies a scheduler promise.
type PromiseId uint64

// noSegment is the sentinel SegmentId meaning "no caller" / "not yet allocated".
const noSegment SegmentId = -1

// idSeq is a monotonic counter embedded per-VM for each ID kind, keeping
// allocation free of any global mutable registry (design note: replace
// global mutable registries keyed by pointer identity with per-VM owned
// maps and counters).
type idSeq struct{ next uint64 }

func (s *idSeq) alloc() uint64 {
	s.next++
	return s.next
}
