package event

import "reflect"

// Token identifies a subscription so it can be removed later.
type Token uint64

// Bus is a typed synchronous event bus. Publish delivers to every subscriber
// in the same call frame, in subscription order; there is no buffering and
// no deferred dispatch. The graph core is single-threaded, so the bus takes
// no locks. Callers must serialize access along with the rest of the engine.
type Bus struct {
	handlers map[reflect.Type][]subscription
	nextTok  Token
}

type subscription struct {
	tok Token
	fn  any
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]subscription),
	}
}

// Subscribe registers a handler for events of type T and returns its token.
func Subscribe[T any](b *Bus, fn func(T)) Token {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.nextTok++
	b.handlers[t] = append(b.handlers[t], subscription{tok: b.nextTok, fn: fn})
	return b.nextTok
}

// Unsubscribe removes the subscription identified by tok. Unknown tokens are
// ignored.
func (b *Bus) Unsubscribe(tok Token) {
	for t, subs := range b.handlers {
		for i, s := range subs {
			if s.tok == tok {
				b.handlers[t] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to all handlers subscribed to its type, synchronously.
func Publish[T any](b *Bus, ev T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for _, s := range b.handlers[t] {
		s.fn.(func(T))(ev)
	}
}
