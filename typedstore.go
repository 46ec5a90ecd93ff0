// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

// typedStore is the VM's user-observable typed store (§3.7): state and
// env are key->value mappings, log is an append-only sequence. Per
// §4.8, state and log are per-task (TaskStore snapshots them across
// context switches); env is shared across all tasks and never swapped.
type typedStore struct {
	state map[string]any
	env   map[any]any
	log   []any
}

func newTypedStore(initialState map[string]any, env map[any]any) *typedStore {
	s := &typedStore{
		state: make(map[string]any, len(initialState)),
		env:   env,
	}
	for k, v := range initialState {
		s.state[k] = v
	}
	if s.env == nil {
		s.env = map[any]any{}
	}
	return s
}

func (s *typedStore) get(key string) any {
	if v, ok := s.state[key]; ok {
		return v
	}
	return nil
}

func (s *typedStore) put(key string, v any) { s.state[key] = v }

func (s *typedStore) ask(key any) any {
	if v, ok := s.env[key]; ok {
		return v
	}
	return nil
}

func (s *typedStore) tell(msg any) { s.log = append(s.log, msg) }

// snapshotState copies the state+log layer (for TaskStore save/restore);
// env is intentionally excluded — it is shared, never per-task.
func (s *typedStore) snapshotState() (map[string]any, []any) {
	state := make(map[string]any, len(s.state))
	for k, v := range s.state {
		state[k] = v
	}
	logCopy := make([]any, len(s.log))
	copy(logCopy, s.log)
	return state, logCopy
}

func (s *typedStore) restoreState(state map[string]any, log []any) {
	s.state = state
	s.log = log
}
