package plan

import "sync"

// Observer receives a notification whenever an observed element's state
// changes. Notification is synchronous and bounded by tree depth; observers
// must return quickly and must not assume they hold any element's lock.
type Observer interface {
	// ElementUpdated is invoked after the element's state changed.
	ElementUpdated(e Element)
}

// Observable is the subject half of the status-change notification chain.
// Children register with their parent at construction; a completing step
// notifies its phase, which notifies its plan, which notifies any external
// subscribers, in that order.
type Observable struct {
	mu        sync.Mutex
	observers []Observer
}

// Subscribe registers an observer for state-change notifications.
func (o *Observable) Subscribe(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, obs)
}

// notifyObservers delivers a change notification for e to every subscriber.
// Callers must not hold any element lock when invoking it.
func (o *Observable) notifyObservers(e Element) {
	o.mu.Lock()
	observers := make([]Observer, len(o.observers))
	copy(observers, o.observers)
	o.mu.Unlock()

	for _, obs := range observers {
		obs.ElementUpdated(e)
	}
}
