package events

import "github.com/kelindar/event"

// SubscribeToChannel delivers events of type T into ch for select-loop
// consumers such as SSE handlers. The publisher never blocks: an event is
// dropped while ch is full. A nil bus subscribes to nothing.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	if bus == nil {
		return func() {}
	}
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// Subscriptions releases several subscriptions at once.
type Subscriptions []func()

// Close unsubscribes all.
func (s Subscriptions) Close() {
	for _, unsubscribe := range s {
		unsubscribe()
	}
}
