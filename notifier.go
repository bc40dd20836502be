package authpage

import "sync"

// SessionHandler receives the current session, nil when signed out
type SessionHandler func(session *Session)

// Subscription is returned by Subscribe and cancels delivery
type Subscription interface {
	Unsubscribe()
}

// Notifier fans session changes out to subscribers. New subscribers get the
// current session immediately.
type Notifier struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]SessionHandler
	current  *Session
}

// NewNotifier creates an empty notifier with no session
func NewNotifier() *Notifier {
	return &Notifier{handlers: make(map[int]SessionHandler)}
}

// Current returns a copy of the last published session
func (n *Notifier) Current() *Session {
	n.mu.Lock()
	defer n.mu.Unlock()
	return copySession(n.current)
}

// Subscribe registers handler and delivers the current session to it
func (n *Notifier) Subscribe(handler SessionHandler) Subscription {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.handlers[id] = handler
	current := copySession(n.current)
	n.mu.Unlock()

	handler(current)
	return &subscription{notifier: n, id: id}
}

// Publish records session as current and delivers it to every subscriber
func (n *Notifier) Publish(session *Session) {
	n.mu.Lock()
	n.current = copySession(session)
	handlers := make([]SessionHandler, 0, len(n.handlers))
	for _, h := range n.handlers {
		handlers = append(handlers, h)
	}
	n.mu.Unlock()

	for _, h := range handlers {
		h(copySession(session))
	}
}

// Len returns the number of active subscriptions
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.handlers)
}

func (n *Notifier) remove(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.handlers, id)
}

type subscription struct {
	once     sync.Once
	notifier *Notifier
	id       int
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.notifier.remove(s.id)
	})
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
