// Package surface coordinates requests to bring a UI surface to the foreground.
package surface

import (
	"context"
	"sync"
	"time"
)

// FocusRequest asks whichever UI surface is open to show the given audit.
type FocusRequest struct {
	AuditID     string    `json:"auditId"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Broker fans focus requests out to subscribed surfaces. A request made while
// no surface is listening is held and handed to the next subscriber.
type Broker struct {
	mu      sync.Mutex
	subs    map[chan FocusRequest]struct{}
	pending *FocusRequest
	now     func() time.Time
}

// NewBroker constructs an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[chan FocusRequest]struct{}),
		now:  time.Now,
	}
}

// Request records a focus request for auditID.
func (b *Broker) Request(auditID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	req := FocusRequest{AuditID: auditID, RequestedAt: b.now()}
	if len(b.subs) == 0 {
		b.pending = &req
		return
	}
	for ch := range b.subs {
		select {
		case ch <- req:
		default:
		}
	}
}

// Pending reports the held request, if any, without consuming it.
func (b *Broker) Pending() (FocusRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return FocusRequest{}, false
	}
	return *b.pending, true
}

// Subscribe registers a surface. The returned func must be called on teardown.
func (b *Broker) Subscribe() (func(), <-chan FocusRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan FocusRequest, 1)
	if b.pending != nil {
		ch <- *b.pending
		b.pending = nil
	}
	b.subs[ch] = struct{}{}

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; !ok {
			return
		}
		delete(b.subs, ch)
		drainAndClose(ch)
	}
	return unsub, ch
}

// Await blocks until a focus request arrives, wait elapses or ctx is done.
func (b *Broker) Await(ctx context.Context, wait time.Duration) (FocusRequest, bool) {
	unsub, ch := b.Subscribe()
	defer unsub()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case req, ok := <-ch:
		return req, ok
	case <-timer.C:
		return FocusRequest{}, false
	case <-ctx.Done():
		return FocusRequest{}, false
	}
}

// StopAll closes every subscription.
func (b *Broker) StopAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		drainAndClose(ch)
		delete(b.subs, ch)
	}
}

// drainAndClose removes any buffered request before closing so receivers
// observe a closed channel immediately.
func drainAndClose(ch chan FocusRequest) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}
