// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

import (
	"testing"

	"code.hybscloud.com/kont/internal/vmconfig"
	"github.com/stretchr/testify/require"
)

func waitOn(ids ...TaskId) DoCtrl {
	if len(ids) == 1 {
		return Perform{Effect: Wait{Task: ids[0]}}
	}
	return Perform{Effect: Gather{Tasks: ids}}
}

// TestSpawnWaitReturnsResult: a spawned task's own Pure value surfaces
// through Wait (§4.8).
func TestSpawnWaitReturnsResult(t *testing.T) {
	prog := FlatMap{
		Source: Perform{Effect: Spawn{Expr: Pure{Value: 7}}},
		Binder: func(id any) DoCtrl {
			return FlatMap{
				Source: waitOn(id.(TaskId)),
				Binder: func(v any) DoCtrl { return Pure{Value: v} },
			}
		},
	}
	res := Run(prog, nil, nil, nil)
	v, ok := res.Result.GetRight()
	require.True(t, ok, "expected Ok result, got %+v", res.Result)
	require.Equal(t, 7, v)
}

// TestGatherAllTasks: Gather collects every spawned task's result keyed
// by TaskId (non-race mode returns the full map).
func TestGatherAllTasks(t *testing.T) {
	prog := FlatMap{
		Source: Perform{Effect: Spawn{Expr: Pure{Value: 1}}},
		Binder: func(a any) DoCtrl {
			return FlatMap{
				Source: Perform{Effect: Spawn{Expr: Pure{Value: 2}}},
				Binder: func(b any) DoCtrl {
					return FlatMap{
						Source: Perform{Effect: Gather{Tasks: []TaskId{a.(TaskId), b.(TaskId)}}},
						Binder: func(results any) DoCtrl { return Pure{Value: results} },
					}
				},
			}
		},
	}
	res := Run(prog, nil, nil, nil)
	v, ok := res.Result.GetRight()
	require.True(t, ok)
	m, ok := v.(map[TaskId]any)
	require.True(t, ok, "Gather should resume with a map[TaskId]any, got %T", v)
	require.Len(t, m, 2)
}

// TestRaceFirstWins: Race resumes as soon as any one task finishes,
// not waiting on the rest.
func TestRaceFirstWins(t *testing.T) {
	prog := FlatMap{
		Source: Perform{Effect: Spawn{Expr: Pure{Value: "fast"}}},
		Binder: func(a any) DoCtrl {
			return FlatMap{
				Source: Perform{Effect: Spawn{Expr: Pure{Value: "also-fast"}}},
				Binder: func(b any) DoCtrl {
					return FlatMap{
						Source: Perform{Effect: Race{Tasks: []TaskId{a.(TaskId), b.(TaskId)}}},
						Binder: func(v any) DoCtrl { return Pure{Value: v} },
					}
				},
			}
		},
	}
	res := Run(prog, nil, nil, nil)
	v, ok := res.Result.GetRight()
	require.True(t, ok)
	require.Contains(t, []string{"fast", "also-fast"}, v)
}

// TestCancelTaskWaitingOnPromise: cancelling a spawned task whose body
// awaits a promise, before that task first runs, reports
// ErrTaskCancelled to its Wait caller.
func TestCancelTaskWaitingOnPromise(t *testing.T) {
	prog := FlatMap{
		Source: Perform{Effect: CreatePromise{}},
		Binder: func(pid any) DoCtrl {
			return FlatMap{
				Source: Perform{Effect: Spawn{Expr: Perform{Effect: AwaitPromise{P: pid.(PromiseId)}}}},
				Binder: func(taskID any) DoCtrl {
					return FlatMap{
						Source: Perform{Effect: Cancel{Task: taskID.(TaskId)}},
						Binder: func(any) DoCtrl { return waitOn(taskID.(TaskId)) },
					}
				},
			}
		},
	}
	res := Run(prog, nil, nil, nil)
	_, ok := res.Result.GetLeft()
	require.True(t, ok, "waiting on a cancelled task should produce an Err result, got %+v", res.Result)
}

// TestPromiseRoundTrip: CreatePromise -> CompletePromise -> AwaitPromise
// resumes with the value a program supplied earlier in the same run.
func TestPromiseRoundTrip(t *testing.T) {
	prog := FlatMap{
		Source: Perform{Effect: CreatePromise{}},
		Binder: func(pid any) DoCtrl {
			return FlatMap{
				Source: Perform{Effect: CompletePromise{P: pid.(PromiseId), Value: 99}},
				Binder: func(any) DoCtrl {
					return FlatMap{
						Source: Perform{Effect: AwaitPromise{P: pid.(PromiseId)}},
						Binder: func(v any) DoCtrl { return Pure{Value: v} },
					}
				},
			}
		},
	}
	res := Run(prog, nil, nil, nil)
	v, ok := res.Result.GetRight()
	require.True(t, ok)
	require.Equal(t, 99, v)
}

// TestPromiseFailurePropagates: FailPromise before AwaitPromise resumes
// with a thrown error rather than a value.
func TestPromiseFailurePropagates(t *testing.T) {
	sentinel := newVMError("test", ErrTypeError, "boom")
	prog := FlatMap{
		Source: Perform{Effect: CreatePromise{}},
		Binder: func(pid any) DoCtrl {
			return FlatMap{
				Source: Perform{Effect: FailPromise{P: pid.(PromiseId), Err: sentinel}},
				Binder: func(any) DoCtrl {
					return Perform{Effect: AwaitPromise{P: pid.(PromiseId)}}
				},
			}
		},
	}
	res := Run(prog, nil, nil, nil)
	_, ok := res.Result.GetLeft()
	require.True(t, ok, "expected Err result, got %+v", res.Result)
}

// TestCreateExternalPromiseExposesUUID checks that the resumed value
// carries a distinct, non-zero UUID alongside the internal PromiseId
// (§4.8/§6.2), and that the scheduler's registry can look the promise
// back up by that UUID.
func TestCreateExternalPromiseExposesUUID(t *testing.T) {
	vm := NewVM(nil, nil)
	require.NoError(t, vm.start(Perform{Effect: CreateExternalPromise{}}, nil))
	out := vm.step()
	require.Equal(t, StepDone, out.Tag)
	ext, ok := out.Value.(ExternalPromiseId)
	require.True(t, ok, "CreateExternalPromise should resume with an ExternalPromiseId, got %T", out.Value)
	require.NotEqual(t, ext.UUID.String(), "00000000-0000-0000-0000-000000000000")

	require.True(t, vm.CompleteExternalPromise(ext.UUID, "cross-process", nil))
	p, ok := vm.sched.proms.get(ext.PromiseId)
	require.True(t, ok)
	status, value, _ := p.snapshot()
	require.Equal(t, promiseFulfilled, status)
	require.Equal(t, "cross-process", value)
}

// TestCompleteExternalPromiseUnknownUUID reports false rather than
// panicking for a UUID that names no promise.
func TestCompleteExternalPromiseUnknownUUID(t *testing.T) {
	vm := NewVM(nil, nil)
	require.NoError(t, vm.start(Pure{Value: 1}, nil))
	var zero [16]byte
	ok := vm.CompleteExternalPromise(zero, nil, nil)
	require.False(t, ok)
}

// TestSpawnRefusesBeyondMaxTasks exercises internal/vmconfig's
// MaxTasks tunable: a second Spawn once the main task already counts
// against the limit is rejected with ErrTaskLimitExceeded rather than
// silently queued.
func TestSpawnRefusesBeyondMaxTasks(t *testing.T) {
	vm := NewVM(nil, nil)
	vm.Configure(vmconfig.Config{MaxTasks: 1}, nil)
	prog := Perform{Effect: Spawn{Expr: Pure{Value: 1}}}
	require.NoError(t, vm.start(prog, nil))
	out := vm.step()
	require.Equal(t, StepError, out.Tag)
	require.ErrorIs(t, out.Err, ErrTaskLimitExceeded)
}

// TestSchedulerYieldRoundRobin: a task that yields while no other task
// is ready resumes in place and completes, so the main task's Wait on it
// returns normally and main's continuation runs exactly once (§4.8).
func TestSchedulerYieldRoundRobin(t *testing.T) {
	var order []string
	prog := FlatMap{
		Source: Perform{Effect: Spawn{Expr: FlatMap{
			Source: Perform{Effect: SchedulerYield{}},
			Binder: func(any) DoCtrl { return Pure{Value: Unit{}} },
		}}},
		Binder: func(id any) DoCtrl {
			order = append(order, "main")
			return waitOn(id.(TaskId))
		},
	}
	res := Run(prog, nil, nil, nil)
	_, ok := res.Result.GetRight()
	require.True(t, ok)
	require.Equal(t, []string{"main"}, order)
}
