// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// Stream is the boundary contract for the out-of-scope host
// collaborator that lifts a user coroutine into a lazy sequence of
// DoCtrl/Effect nodes (§1, §4.6). The VM calls Start/Send and
// classifies what comes back through Classify; how a host
// turns "a generator function" into this interface is specification-
// external.
//
// pipeline.go calls Start and Send directly inside the step loop; the
// VM never calls Throw. CallFunc/CallHandler collapse to direct Go
// calls in this port.
type Stream interface {
	// Start begins the stream, returning its first yielded value.
	Start() (yielded any, done bool, err error)
	// Send resumes the stream with v, returning its next yielded value.
	Send(v any) (yielded any, done bool, err error)
	// Throw resumes the stream by throwing err into it.
	Throw(err error) (yielded any, done bool, err2 error)
}

// No wrapper type pairs a Stream with call metadata: Pipeline carries
// the Stream directly, and no CallMeta is recorded for a Pipeline, so
// stack-trace introspection has none for it.
