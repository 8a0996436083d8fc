package prefs

import (
	"context"
	"sync"
)

// Observable publishes every successful write to subscribers of the key.
// A slow subscriber only ever sees the newest value.
type Observable struct {
	Store

	mu   sync.Mutex
	subs map[string]map[chan string]struct{}
}

func NewObservable(inner Store) *Observable {
	return &Observable{Store: inner, subs: map[string]map[chan string]struct{}{}}
}

// Watch subscribes to writes under key. The returned cancel func unsubscribes
// and closes the channel.
func (o *Observable) Watch(key string) (<-chan string, func()) {
	ch := make(chan string, 1)

	o.mu.Lock()
	if o.subs[key] == nil {
		o.subs[key] = map[chan string]struct{}{}
	}
	o.subs[key][ch] = struct{}{}
	o.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs[key], ch)
			o.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (o *Observable) PutString(ctx context.Context, key, value string) error {
	if err := o.Store.PutString(ctx, key, value); err != nil {
		return err
	}
	o.publish(key, value)
	return nil
}

func (o *Observable) Delete(ctx context.Context, key string) error {
	if err := o.Store.Delete(ctx, key); err != nil {
		return err
	}
	o.publish(key, "")
	return nil
}

func (o *Observable) publish(key, value string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for ch := range o.subs[key] {
		// Drop the stale value if the subscriber has not read it yet.
		select {
		case <-ch:
		default:
		}
		ch <- value
	}
}
