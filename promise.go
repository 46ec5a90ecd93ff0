// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

import (
	"sync"

	"github.com/google/uuid"
)

// promiseStatus tracks a promise's settlement state (§4.8).
type promiseStatus uint8

const (
	promisePending promiseStatus = iota
	promiseFulfilled
	promiseRejected
)

// promise is a single-assignment result cell. Ordinary promises are
// only ever touched from the single step loop; external promises are
// also reachable from other goroutines via VM.CompleteExternalPromise,
// so they alone need the mutex-guarded mailbox (§5, SPEC_FULL's
// rejection of golang.org/x/sync in favor of a plain sync.Mutex here).
type promise struct {
	id       PromiseId
	external bool
	extID    uuid.UUID
	mu       sync.Mutex
	status   promiseStatus
	value    any
	err      error
	waiters  []*waiter
}

func newPromiseRegistry() *promiseRegistry {
	return &promiseRegistry{
		entries: make(map[PromiseId]*promise),
		byUUID:  make(map[uuid.UUID]PromiseId),
	}
}

type promiseRegistry struct {
	seq     idSeq
	entries map[PromiseId]*promise
	byUUID  map[uuid.UUID]PromiseId
}

// create allocates a promise. external promises additionally get a
// uuid.UUID a host process can hand across a process boundary and
// later resolve back to the internal PromiseId via byExternalID (§4.8,
// §6.2's CreateExternalPromise: "a UUID for cross-process use").
func (r *promiseRegistry) create(external bool) *promise {
	p := &promise{id: PromiseId(r.seq.alloc()), external: external}
	if external {
		p.extID = uuid.New()
		r.byUUID[p.extID] = p.id
	}
	r.entries[p.id] = p
	return p
}

func (r *promiseRegistry) byExternalID(u uuid.UUID) (*promise, bool) {
	id, ok := r.byUUID[u]
	if !ok {
		return nil, false
	}
	return r.get(id)
}

func (r *promiseRegistry) get(id PromiseId) (*promise, bool) {
	p, ok := r.entries[id]
	return p, ok
}

// settle fulfills or rejects the promise exactly once; later calls are
// ignored (a promise is a single-assignment cell). Returns the waiters
// to wake, already detached from the promise.
func (p *promise) settle(value any, err error) []*waiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != promisePending {
		return nil
	}
	if err != nil {
		p.status = promiseRejected
		p.err = err
	} else {
		p.status = promiseFulfilled
		p.value = value
	}
	w := p.waiters
	p.waiters = nil
	return w
}

func (p *promise) snapshot() (promiseStatus, any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, p.value, p.err
}

func (p *promise) addWaiter(w *waiter) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != promisePending {
		return false
	}
	p.waiters = append(p.waiters, w)
	return true
}
