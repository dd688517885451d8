package socketio

import (
	"net"
	"sync"
)

// ListenerLimiter caps the number of concurrent remote listeners.
// Loopback listeners (a kiosk browser on the same host) are never counted.
// When a new remote listener exceeds the cap, the one connected longest is
// evicted. A cap of zero or less disables the limit.
type ListenerLimiter struct {
	mu        sync.Mutex
	maxRemote int
	// remote listener IDs, oldest first
	remote []string
	// listener ID -> remote address
	listeners map[string]string
}

// NewListenerLimiter creates a limiter allowing up to maxRemote remote listeners.
func NewListenerLimiter(maxRemote int) *ListenerLimiter {
	return &ListenerLimiter{
		maxRemote: maxRemote,
		listeners: make(map[string]string),
	}
}

// Admit registers a listener and returns the ID of the listener it displaced,
// or "" if none was.
func (l *ListenerLimiter) Admit(id, addr string) (evicted string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.listeners[id]; ok {
		return ""
	}
	l.listeners[id] = addr

	if isLoopback(addr) {
		return ""
	}
	l.remote = append(l.remote, id)

	if l.maxRemote > 0 && len(l.remote) > l.maxRemote {
		evicted = l.remote[0]
		l.remote = l.remote[1:]
		delete(l.listeners, evicted)
	}
	return evicted
}

// Release unregisters a listener when it disconnects.
func (l *ListenerLimiter) Release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	addr, ok := l.listeners[id]
	if !ok {
		return
	}
	delete(l.listeners, id)

	if isLoopback(addr) {
		return
	}
	for i, rid := range l.remote {
		if rid == id {
			l.remote = append(l.remote[:i], l.remote[i+1:]...)
			break
		}
	}
}

// Count returns the number of tracked listeners, loopback included.
func (l *ListenerLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.listeners)
}

// isLoopback reports whether addr (an IP, optionally with a port) is a loopback address.
func isLoopback(addr string) bool {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	ip := net.ParseIP(addr)
	return ip != nil && ip.IsLoopback()
}
