// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// Value is the VM's runtime value type. Go's interface{} already gives
// every first-class variant spec.md §4.2 enumerates (host value,
// continuation, handler list, task/promise handle, unit, integer,
// string, boolean, null, value list, call-stack descriptor) for free —
// a native Go int/string/bool/nil IS the corresponding variant, and
// *Continuation/[]Handler/TaskId/PromiseId/ExternalPromiseId are the
// handle variants, declared elsewhere in the package. No wrapper sum type is needed;
// Value exists only to name the convention in doc comments and
// signatures.
type Value = any

// Unit is the VM's unit value, returned by effects whose result carries
// no information (Put, Tell, Cancel, CompletePromise, FailPromise).
type Unit struct{}

// ValueList is the Value variant for a value list (e.g. Apply's Args);
// Gather resumes with a map[TaskId]any, not a ValueList.
type ValueList = []any

// CallStackDescriptor is the introspection value produced by
// GetCallStack: one entry per segment from current to the root.
type CallStackDescriptor struct {
	Entries []CallStackEntry
}

// CallStackEntry describes one segment in a call-stack descriptor.
type CallStackEntry struct {
	Segment SegmentId
	Kind    string
	Meta    *CallMeta
}

// ClassifyKind is the outcome of classifying a value yielded by a
// Stream driven through Pipeline.
type ClassifyKind uint8

const (
	// ClassifyCtrl means the value is already a DoCtrl node.
	ClassifyCtrl ClassifyKind = iota
	// ClassifyEffect means the value is an Effect, implicitly lifted to
	// Perform(effect).
	ClassifyEffect
	// ClassifyUnknown means the value is neither — a TypeError.
	ClassifyUnknown
)

// Classify sorts a yielded object: a DoCtrl value
// classifies as itself, an Effect is lifted to Perform(effect), and
// anything else is Unknown (boundary TypeError). The DoCtrl and Effect
// interface assertions are both O(1) and need no runtime
// metadata lookup, matching §4.2's constant-time requirement.
func Classify(yielded any) (DoCtrl, ClassifyKind) {
	if c, ok := yielded.(DoCtrl); ok {
		return c, ClassifyCtrl
	}
	if e, ok := yielded.(Effect); ok {
		return Perform{Effect: e}, ClassifyEffect
	}
	return nil, ClassifyUnknown
}
