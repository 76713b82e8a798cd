package orchestration

import (
	"sync"
	"time"
)

type StatusReason string

const (
	ReasonNone      StatusReason = ""
	ReasonNoInput   StatusReason = "no_input"
	ReasonReady     StatusReason = "ready"
	ReasonCancelled StatusReason = "cancelled"
	ReasonBusy      StatusReason = "busy"
	ReasonFailed    StatusReason = "failed"
	ReasonDisposed  StatusReason = "disposed"
)

// StatusChange is delivered to every status listener on each transition and
// for rejected triggers. A rejected trigger leaves State equal to Previous.
type StatusChange struct {
	State     InteractionState
	Previous  InteractionState
	Reason    StatusReason
	Turn      *TurnSnapshot
	ErrorKind ErrorKind
	Message   string
	At        time.Time
}

// IsTransition reports whether the change moved the state machine.
func (c StatusChange) IsTransition() bool {
	return c.State != c.Previous
}

// statusListeners keeps the subscribed listeners in subscription order.
type statusListeners struct {
	mu        sync.Mutex
	nextID    int
	listeners []statusListener
}

type statusListener struct {
	id       int
	listener func(StatusChange)
}

func (l *statusListeners) add(listener func(StatusChange)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.listeners = append(l.listeners, statusListener{id: id, listener: listener})

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *statusListeners) remove(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, registered := range l.listeners {
		if registered.id == id {
			l.listeners = append(l.listeners[:i:i], l.listeners[i+1:]...)
			return
		}
	}
}

func (l *statusListeners) notify(change StatusChange) {
	l.mu.Lock()
	listeners := make([]statusListener, len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()

	for _, registered := range listeners {
		callSafely(func() { registered.listener(change) })
	}
}

// dispatcher runs notifications in order on its own goroutine. dispatch never
// blocks, the queue is unbounded.
type dispatcher struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	signal chan struct{}
	done   chan struct{}
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) dispatch(notification func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, notification)
	d.mu.Unlock()

	d.wake()
}

// close delivers what is already queued and stops the dispatcher.
func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wake()
}

func (d *dispatcher) wake() {
	select {
	case d.signal <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	defer close(d.done)

	for {
		d.mu.Lock()
		queue := d.queue
		d.queue = nil
		closed := d.closed
		d.mu.Unlock()

		for _, notification := range queue {
			callSafely(notification)
		}
		if closed {
			return
		}

		<-d.signal
	}
}

// callSafely keeps a panicking listener from taking the dispatcher down.
func callSafely(notification func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("status notification panicked", "panic", r)
		}
	}()
	notification()
}
