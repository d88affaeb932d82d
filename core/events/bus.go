package events

import "sync"

// Listener receives published events. Listeners run in-process and
// synchronously on the publishing goroutine; a panicking listener aborts
// the publish and propagates to the publisher.
type Listener func(Event)

// Subscription identifies a registered listener so it can be removed.
type Subscription struct {
	bus      *Bus
	id       uint64
	kind     Kind
	anyEvent bool
}

// Unsubscribe removes the listener from the bus. Safe to call more than
// once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.bus != nil {
		s.bus.unsubscribe(s)
	}
}

type registration struct {
	id       uint64
	listener Listener
}

// Bus delivers events synchronously to registered listeners. Every event is
// delivered twice conceptually: once to every any-event listener and once
// to every listener keyed to the event's kind, each group in registration
// order.
//
// The bus serializes registration; delivery itself runs on the publisher's
// goroutine against a snapshot of the listener set, so listeners may
// subscribe or unsubscribe from within a callback without deadlocking.
type Bus struct {
	mu     sync.Mutex
	nextID uint64

	listeners     []registration
	kindListeners map[Kind][]registration
}

func NewBus() *Bus {
	return &Bus{kindListeners: map[Kind][]registration{}}
}

// Subscribe registers a listener for every published event.
func (b *Bus) Subscribe(listener Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.listeners = append(b.listeners, registration{id: b.nextID, listener: listener})
	return &Subscription{bus: b, id: b.nextID, anyEvent: true}
}

// SubscribeKind registers a listener for events of one specific kind.
func (b *Bus) SubscribeKind(kind Kind, listener Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.kindListeners[kind] = append(b.kindListeners[kind], registration{id: b.nextID, listener: listener})
	return &Subscription{bus: b, id: b.nextID, kind: kind}
}

// Publish delivers the event to the any-event listeners first, then to the
// listeners keyed by the event's kind, both in registration order. Listener
// failures are not caught.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	anyListeners := make([]registration, len(b.listeners))
	copy(anyListeners, b.listeners)
	kindListeners := make([]registration, len(b.kindListeners[event.Kind()]))
	copy(kindListeners, b.kindListeners[event.Kind()])
	b.mu.Unlock()

	for _, registered := range anyListeners {
		registered.listener(event)
	}
	for _, registered := range kindListeners {
		registered.listener(event)
	}
}

func (b *Bus) unsubscribe(subscription *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscription.anyEvent {
		b.listeners = removeRegistration(b.listeners, subscription.id)
		return
	}
	b.kindListeners[subscription.kind] = removeRegistration(b.kindListeners[subscription.kind], subscription.id)
}

func removeRegistration(registrations []registration, id uint64) []registration {
	for i, registered := range registrations {
		if registered.id == id {
			return append(registrations[:i:i], registrations[i+1:]...)
		}
	}
	return registrations
}
