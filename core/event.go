package core

// EventKind tags the lifecycle event variants.
type EventKind string

const (
	EventResourceChanged   EventKind = "resource_changed"
	EventFormSubmitted     EventKind = "form_submitted"
	EventHandshakeReceived EventKind = "handshake_received"
	EventCloseApplication  EventKind = "close_application"
)

// Event is the closed set of lifecycle notifications fired by the engine.
// The unexported method seals the set to the variants declared here.
type Event interface {
	Kind() EventKind
	sealed()
}

// ResourceChanged reports a resource created or updated in the scratchpad.
type ResourceChanged[R any] struct {
	Location string
	Resource R
}

// FormSubmitted carries the questionnaire response the guest submitted.
type FormSubmitted[R any] struct {
	Response R
}

// HandshakeReceived reports a status.handshake from the guest.
type HandshakeReceived struct{}

// CloseApplication reports a ui.done from the guest.
type CloseApplication struct{}

func (ResourceChanged[R]) Kind() EventKind { return EventResourceChanged }
func (FormSubmitted[R]) Kind() EventKind   { return EventFormSubmitted }
func (HandshakeReceived) Kind() EventKind  { return EventHandshakeReceived }
func (CloseApplication) Kind() EventKind   { return EventCloseApplication }

func (ResourceChanged[R]) sealed() {}
func (FormSubmitted[R]) sealed()   {}
func (HandshakeReceived) sealed()  {}
func (CloseApplication) sealed()   {}

// Listener observes lifecycle events. Every callback is optional; a nil
// field means the listener is not interested in that variant. Listeners are
// registered by pointer and removed by the same pointer.
type Listener[R any] struct {
	OnResourceChanged   func(ResourceChanged[R])
	OnFormSubmitted     func(FormSubmitted[R])
	OnHandshakeReceived func(HandshakeReceived)
	OnCloseApplication  func(CloseApplication)
}

// Dispatch invokes the callback matching ev, if any. Events whose resource
// type does not match R are ignored.
func (l *Listener[R]) Dispatch(ev Event) {
	switch e := ev.(type) {
	case ResourceChanged[R]:
		if l.OnResourceChanged != nil {
			l.OnResourceChanged(e)
		}
	case FormSubmitted[R]:
		if l.OnFormSubmitted != nil {
			l.OnFormSubmitted(e)
		}
	case HandshakeReceived:
		if l.OnHandshakeReceived != nil {
			l.OnHandshakeReceived(e)
		}
	case CloseApplication:
		if l.OnCloseApplication != nil {
			l.OnCloseApplication(e)
		}
	}
}
