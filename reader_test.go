// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont_test

import (
	"testing"

	"code.hybscloud.com/kont"
)

type Config struct {
	Debug bool
	Port  int
}

func TestReaderAsk(t *testing.T) {
	prog := kont.Perform{Effect: kont.ReaderAsk{Key: "port"}}
	res := kont.Run(prog, nil, map[any]any{"port": 42}, nil)
	v, ok := res.Result.GetRight()
	if !ok || v.(int) != 42 {
		t.Fatalf("got %+v, want Ok(42)", res.Result)
	}
}

func TestReaderChained(t *testing.T) {
	// ask x; ask y; return x+y
	prog := kont.FlatMap{
		Source: kont.Perform{Effect: kont.ReaderAsk{Key: "x"}},
		Binder: func(x any) kont.DoCtrl {
			return kont.FlatMap{
				Source: kont.Perform{Effect: kont.ReaderAsk{Key: "y"}},
				Binder: func(y any) kont.DoCtrl { return kont.Pure{Value: x.(int) + y.(int)} },
			}
		},
	}
	res := kont.Run(prog, nil, map[any]any{"x": 21, "y": 21}, nil)
	v, _ := res.Result.GetRight()
	if v.(int) != 42 {
		t.Fatalf("got %v, want 42", v)
	}
}

func TestReaderMissingKey(t *testing.T) {
	res := kont.Run(kont.Perform{Effect: kont.ReaderAsk{Key: "nope"}}, nil, nil, nil)
	v, ok := res.Result.GetRight()
	if !ok || v != nil {
		t.Fatalf("Ask on a missing key should resume with nil, got %+v", res.Result)
	}
}

func TestReaderWithConfig(t *testing.T) {
	prog := kont.FlatMap{
		Source: kont.Perform{Effect: kont.ReaderAsk{Key: "cfg"}},
		Binder: func(v any) kont.DoCtrl {
			cfg := v.(Config)
			if cfg.Debug {
				return kont.Pure{Value: "debug mode"}
			}
			return kont.Pure{Value: "production"}
		},
	}
	res := kont.Run(prog, nil, map[any]any{"cfg": Config{Debug: true, Port: 80}}, nil)
	v, _ := res.Result.GetRight()
	if v.(string) != "debug mode" {
		t.Fatalf("got %q, want %q", v, "debug mode")
	}

	res = kont.Run(prog, nil, map[any]any{"cfg": Config{Debug: false, Port: 80}}, nil)
	v, _ = res.Result.GetRight()
	if v.(string) != "production" {
		t.Fatalf("got %q, want %q", v, "production")
	}
}

func TestReaderPure(t *testing.T) {
	res := kont.Run(kont.Pure{Value: 100}, nil, map[any]any{"x": 42}, nil)
	v, _ := res.Result.GetRight()
	if v.(int) != 100 {
		t.Fatalf("got %v, want 100", v)
	}
}

func TestReaderEnvSharedAcrossTasks(t *testing.T) {
	// env is identical for every task (§8.1 invariant 8): a spawned
	// task reads the same env key as its parent.
	prog := kont.FlatMap{
		Source: kont.Perform{Effect: kont.Spawn{Expr: kont.Perform{Effect: kont.ReaderAsk{Key: "x"}}}},
		Binder: func(taskID any) kont.DoCtrl {
			return kont.FlatMap{
				Source: kont.Perform{Effect: kont.Wait{Task: taskID.(kont.TaskId)}},
				Binder: func(v any) kont.DoCtrl { return kont.Pure{Value: v} },
			}
		},
	}
	res := kont.Run(prog, nil, map[any]any{"x": 7}, nil)
	v, ok := res.Result.GetRight()
	if !ok || v.(int) != 7 {
		t.Fatalf("got %+v, want Ok(7)", res.Result)
	}
}
