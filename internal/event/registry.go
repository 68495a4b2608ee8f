package event

import (
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the ordered, identity-deduplicated set of event listeners.
//
// All methods are safe for concurrent use. Broadcast holds no lock while
// invoking listeners; it snapshots the listener list first, so listeners
// may register or unregister from within a notification.
type Registry struct {
	mu        sync.RWMutex
	listeners []Listener
	logger    Logger
}

// NewRegistry creates an empty listener registry.
func NewRegistry() *Registry {
	return &Registry{logger: noopLogger{}}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// Register appends a listener. Registering a listener that is already
// present (compared by identity) is a no-op with a warning.
func (r *Registry) Register(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.listeners {
		if existing == l {
			r.logger.Warn("ignoring duplicate event listener registration")
			return
		}
	}

	r.listeners = append(r.listeners, l)
	r.logger.Info("event listener registered", "listeners", len(r.listeners))
}

// Unregister removes the first identity match for the listener.
// Removing an unknown listener is a no-op with a warning.
func (r *Registry) Unregister(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.listeners {
		if existing == l {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			r.logger.Info("event listener unregistered", "listeners", len(r.listeners))
			return
		}
	}

	r.logger.Warn("no registered event listener found to unregister")
}

// Count returns the number of registered listeners.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}

// Broadcast synchronously notifies every registered listener in
// registration order. A listener error is logged and does not prevent
// delivery to the remaining listeners.
func (r *Registry) Broadcast(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	r.mu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	logger := r.logger
	r.mu.RUnlock()

	for _, l := range listeners {
		if err := l.Notify(ev); err != nil {
			logger.Error("event listener notification failed",
				"kind", ev.Kind,
				"error", err,
			)
		}
	}
}
