// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// pipelineStep is the internal continuation node used to drive a
// Stream forward one yield at a time; it is never constructed by user
// code, only by evalPipeline/resumePipeline below.
type pipelineStep struct {
	stream  Stream
	advance func() (any, bool, error)
}

func (pipelineStep) ctrlTag() ctrlTag { return tagPipeline }

// evalPipeline starts a Stream and begins classifying what it yields
// (§4.6).
func (vm *VM) evalPipeline(seg *segment, s Stream) Mode {
	yielded, done, err := s.Start()
	return vm.resumePipeline(seg, s, yielded, done, err)
}

// resumePipeline classifies one yielded value from the stream: a
// DoCtrl is spliced in and evaluated, an Effect is performed, and
// anything else is a TypeError. Once the DoCtrl or Effect produces a
// value, Send is called with it and the result re-classified — this is the lazy
// sequence loop of §4.6's "host coroutine-to-IR lifting" boundary.
func (vm *VM) resumePipeline(seg *segment, s Stream, yielded any, done bool, err error) Mode {
	if err != nil {
		return throwMode(err)
	}
	if done {
		return deliverMode(yielded)
	}

	ctrl, kind := Classify(yielded)
	switch kind {
	case ClassifyCtrl:
		seg.cont = append(seg.cont, contFrame{binder: func(v any) DoCtrl {
			return pipelineStep{stream: s, advance: func() (any, bool, error) { return s.Send(v) }}
		}})
		seg.prog = ctrl
		return handleYieldMode(ctrl)

	case ClassifyEffect:
		seg.cont = append(seg.cont, contFrame{binder: func(v any) DoCtrl {
			return pipelineStep{stream: s, advance: func() (any, bool, error) { return s.Send(v) }}
		}})
		seg.prog = Perform{Effect: yielded.(Effect)}
		return handleYieldMode(seg.prog)

	default:
		return throwMode(TypeError("Pipeline", yielded, "DoCtrl or Effect"))
	}
}
