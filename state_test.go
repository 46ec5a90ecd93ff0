// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont_test

import (
	"testing"

	"code.hybscloud.com/kont"
)

func TestStateGetPut(t *testing.T) {
	// get x; put x+1; get x
	prog := kont.FlatMap{
		Source: kont.Perform{Effect: kont.StateGet{Key: "x"}},
		Binder: func(v any) kont.DoCtrl {
			return kont.FlatMap{
				Source: kont.Perform{Effect: kont.StatePut{Key: "x", Value: v.(int) + 1}},
				Binder: func(any) kont.DoCtrl { return kont.Perform{Effect: kont.StateGet{Key: "x"}} },
			}
		},
	}
	res := kont.Run(prog, nil, nil, map[string]any{"x": 10})
	v, ok := res.Result.GetRight()
	if !ok {
		t.Fatalf("expected Ok result, got %+v", res.Result)
	}
	if v.(int) != 11 {
		t.Fatalf("got result %v, want 11", v)
	}
	if res.RawStore["x"] != 11 {
		t.Fatalf("got state %v, want 11", res.RawStore["x"])
	}
}

func TestStateModify(t *testing.T) {
	prog := kont.Perform{Effect: kont.StateModify{Key: "x", F: func(v any) any { return v.(int) * 2 }}}
	res := kont.Run(prog, nil, nil, map[string]any{"x": 21})
	v, _ := res.Result.GetRight()
	if v.(int) != 21 {
		t.Fatalf("Modify should resume with the OLD value, got %v", v)
	}
	if res.RawStore["x"] != 42 {
		t.Fatalf("got state %v, want 42", res.RawStore["x"])
	}
}

func TestStateGetMissingKey(t *testing.T) {
	prog := kont.Perform{Effect: kont.StateGet{Key: "missing"}}
	res := kont.Run(prog, nil, nil, nil)
	v, ok := res.Result.GetRight()
	if !ok || v != nil {
		t.Fatalf("Get on a missing key should resume with nil, got %+v", res.Result)
	}
}

func TestStateChained(t *testing.T) {
	// put 1; modify (+1); modify (*2); get
	prog := kont.FlatMap{
		Source: kont.Perform{Effect: kont.StatePut{Key: "x", Value: 1}},
		Binder: func(any) kont.DoCtrl {
			return kont.FlatMap{
				Source: kont.Perform{Effect: kont.StateModify{Key: "x", F: func(v any) any { return v.(int) + 1 }}},
				Binder: func(any) kont.DoCtrl {
					return kont.FlatMap{
						Source: kont.Perform{Effect: kont.StateModify{Key: "x", F: func(v any) any { return v.(int) * 2 }}},
						Binder: func(any) kont.DoCtrl { return kont.Perform{Effect: kont.StateGet{Key: "x"}} },
					}
				},
			}
		},
	}
	res := kont.Run(prog, nil, nil, nil)
	v, _ := res.Result.GetRight()
	if v.(int) != 4 { // (1 + 1) * 2 = 4
		t.Fatalf("got %v, want 4", v)
	}
}

func TestStatePure(t *testing.T) {
	res := kont.Run(kont.Pure{Value: 42}, nil, nil, map[string]any{"x": 100})
	v, _ := res.Result.GetRight()
	if v.(int) != 42 {
		t.Fatalf("got result %v, want 42", v)
	}
	if res.RawStore["x"] != 100 {
		t.Fatalf("Pure must not affect state, got %v", res.RawStore["x"])
	}
}
