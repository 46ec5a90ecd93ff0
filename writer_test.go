// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont_test

import (
	"testing"

	"code.hybscloud.com/kont"
)

func TestWriterTellResumesWithUnit(t *testing.T) {
	prog := kont.Perform{Effect: kont.WriterTell{Msg: "hello"}}
	res := kont.Run(prog, nil, nil, nil)
	v, ok := res.Result.GetRight()
	if !ok {
		t.Fatalf("expected Ok result, got %+v", res.Result)
	}
	if _, isUnit := v.(kont.Unit); !isUnit {
		t.Fatalf("Tell should resume with Unit, got %#v", v)
	}
}

func TestWriterChained(t *testing.T) {
	// tell a; tell b; tell c; return final value
	prog := kont.FlatMap{
		Source: kont.Perform{Effect: kont.WriterTell{Msg: "a"}},
		Binder: func(any) kont.DoCtrl {
			return kont.FlatMap{
				Source: kont.Perform{Effect: kont.WriterTell{Msg: "b"}},
				Binder: func(any) kont.DoCtrl {
					return kont.FlatMap{
						Source: kont.Perform{Effect: kont.WriterTell{Msg: "c"}},
						Binder: func(any) kont.DoCtrl { return kont.Pure{Value: "done"} },
					}
				},
			}
		},
	}
	res := kont.Run(prog, nil, nil, nil)
	v, ok := res.Result.GetRight()
	if !ok || v.(string) != "done" {
		t.Fatalf("got %+v, want Ok(done)", res.Result)
	}
}

// TestWriterCustomLoggingHandler exercises §6.6's note that logs live
// inside the writer handler unless the user composes a logging handler
// that exposes them: a user handler installed ahead of the standard
// writerVMHandler intercepts Tell, appends to its own slice, and still
// resumes the computation (it never reaches the standard handler).
func TestWriterCustomLoggingHandler(t *testing.T) {
	var logs []any
	logging := kont.HandlerFunc(func(eff kont.Effect, k *kont.Continuation) kont.DoCtrl {
		if e, ok := eff.(kont.WriterTell); ok {
			logs = append(logs, e.Msg)
			return kont.Resume{K: k, Value: kont.Unit{}}
		}
		return kont.Pass{Effect: eff}
	})

	prog := kont.FlatMap{
		Source: kont.Perform{Effect: kont.WriterTell{Msg: "start"}},
		Binder: func(any) kont.DoCtrl {
			return kont.FlatMap{
				Source: kont.Perform{Effect: kont.WriterTell{Msg: "end"}},
				Binder: func(any) kont.DoCtrl { return kont.Pure{Value: 42} },
			}
		},
	}
	res := kont.Run(prog, []kont.Handler{logging}, nil, nil)
	v, ok := res.Result.GetRight()
	if !ok || v.(int) != 42 {
		t.Fatalf("got %+v, want Ok(42)", res.Result)
	}
	if len(logs) != 2 || logs[0] != "start" || logs[1] != "end" {
		t.Fatalf("got logs %v, want [start end]", logs)
	}
}

// TestWriterPassesThroughToStandardHandler checks that a user handler
// for an unrelated effect leaves Tell to fall through to writerVMHandler
// (Pass propagates past the user handler to the standard one beneath it).
func TestWriterPassesThroughToStandardHandler(t *testing.T) {
	noop := kont.HandlerFunc(func(eff kont.Effect, k *kont.Continuation) kont.DoCtrl {
		return kont.Pass{Effect: eff}
	})
	prog := kont.Perform{Effect: kont.WriterTell{Msg: "logged"}}
	res := kont.Run(prog, []kont.Handler{noop}, nil, nil)
	if _, ok := res.Result.GetRight(); !ok {
		t.Fatalf("expected Ok result, got %+v", res.Result)
	}
}
