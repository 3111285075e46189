package notify

import "sync"

// Notifier broadcasts a payload-free change signal. Receivers re-query the
// source of truth themselves.
type Notifier interface {
	Publish()
	Subscribe(fn func()) (unsubscribe func())
}

type subscriber struct {
	id int
	fn func()
}

// Bus is an in-process Notifier. Subscribers run synchronously on the
// publishing goroutine, in the order they subscribed.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Publish() {
	b.mu.Lock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		if b.active(s.id) {
			s.fn()
		}
	}
}

func (b *Bus) Subscribe(fn func()) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.remove(id)
		})
	}
}

// Len reports the number of live subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// active reports whether id is still subscribed, so a callback removed by an
// earlier callback of the same Publish is skipped.
func (b *Bus) active(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		if s.id == id {
			return true
		}
	}
	return false
}
