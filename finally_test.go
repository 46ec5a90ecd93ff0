// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/kont"
)

func TestFinallyRunsCleanupOnNormalExit(t *testing.T) {
	ran := false
	prog := kont.Finally{
		Body: kont.Pure{Value: 7},
		Cleanup: kont.Map{
			Source: kont.Pure{Value: nil},
			F:      func(any) any { ran = true; return nil },
		},
	}
	res := kont.Run(prog, nil, nil, nil)
	v, ok := res.Result.GetRight()
	if !ok {
		t.Fatalf("expected Ok result, got %+v", res.Result)
	}
	if v.(int) != 7 {
		t.Fatalf("got result %v, want 7", v)
	}
	if !ran {
		t.Fatalf("expected cleanup to run on normal exit")
	}
}

func TestFinallyRunsCleanupOnThrow(t *testing.T) {
	ran := false
	wantErr := errors.New("boom")
	prog := kont.Finally{
		Body: kont.ThrowHost{Err: wantErr},
		Cleanup: kont.Map{
			Source: kont.Pure{Value: nil},
			F:      func(any) any { ran = true; return nil },
		},
	}
	res := kont.Run(prog, nil, nil, nil)
	_, ok := res.Result.GetLeft()
	if !ok {
		t.Fatalf("expected Err result, got %+v", res.Result)
	}
	if !ran {
		t.Fatalf("expected cleanup to run on abrupt exit")
	}
}

func TestFinallyNestedOuterCleanupRunsAfterInner(t *testing.T) {
	var order []string
	prog := kont.Finally{
		Body: kont.Finally{
			Body: kont.Pure{Value: "ok"},
			Cleanup: kont.Map{
				Source: kont.Pure{Value: nil},
				F:      func(any) any { order = append(order, "inner"); return nil },
			},
		},
		Cleanup: kont.Map{
			Source: kont.Pure{Value: nil},
			F:      func(any) any { order = append(order, "outer"); return nil },
		},
	}
	res := kont.Run(prog, nil, nil, nil)
	if _, ok := res.Result.GetRight(); !ok {
		t.Fatalf("expected Ok result, got %+v", res.Result)
	}
	if len(order) != 2 || order[0] != "inner" || order[1] != "outer" {
		t.Fatalf("got cleanup order %v, want [inner outer]", order)
	}
}
