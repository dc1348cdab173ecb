package services

import "sync"

// notifier is a minimal fan-out of change notifications. Services embed one
// and call broadcast after every state transition; subscribers receive a bare
// callback and re-read whatever accessors they care about. Callbacks run on
// the goroutine that triggered the change and must not block.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

// subscribe registers fn and returns a cancel func that removes it.
func (n *notifier) subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// broadcast invokes every registered callback. The subscriber set is copied
// under the lock so callbacks may subscribe or cancel reentrantly.
func (n *notifier) broadcast() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
