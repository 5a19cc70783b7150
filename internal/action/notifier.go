package action

// Copyright (C) 2025 Rizome Labs, Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; either version 2
// of the License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the Free Software
// Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

import (
	"sync"

	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"go.uber.org/zap"
)

// Notifier fans lifecycle events out to listeners
type Notifier struct {
	mu        sync.RWMutex
	listeners []subscription
	nextID    int
	logger    *zap.Logger
}

type subscription struct {
	id int
	fn actpkg.Listener
}

// NewNotifier creates a notifier; a nil logger is replaced by a no-op logger
func NewNotifier(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{logger: logger}
}

// Subscribe adds a listener and returns a function that removes it
func (n *Notifier) Subscribe(fn actpkg.Listener) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, subscription{id: id, fn: fn})

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, s := range n.listeners {
			if s.id == id {
				n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
				return
			}
		}
	}
}

// Notify calls every listener synchronously, in registration order
func (n *Notifier) Notify(event actpkg.Event) {
	n.mu.RLock()
	listeners := make([]subscription, len(n.listeners))
	copy(listeners, n.listeners)
	n.mu.RUnlock()

	for _, s := range listeners {
		n.deliver(s.fn, event)
	}
}

func (n *Notifier) deliver(fn actpkg.Listener, event actpkg.Event) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("listener panicked",
				zap.String("event", string(event.Type)),
				zap.Any("panic", r))
		}
	}()
	fn(event)
}

// ChannelListener buffers events on a channel for consumers that run on
// their own goroutine. Events are dropped when the buffer is full.
type ChannelListener struct {
	mu     sync.Mutex
	ch     chan actpkg.Event
	closed bool
}

// NewChannelListener creates a channel listener with the given buffer size
func NewChannelListener(size int) *ChannelListener {
	if size <= 0 {
		size = 100
	}
	return &ChannelListener{ch: make(chan actpkg.Event, size)}
}

// Listen is the Listener to pass to Notifier.Subscribe
func (c *ChannelListener) Listen(event actpkg.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.ch <- event:
	default:
		// Channel full, drop event
	}
}

// Events returns the receive side of the channel
func (c *ChannelListener) Events() <-chan actpkg.Event {
	return c.ch
}

// Close stops delivery and closes the channel
func (c *ChannelListener) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}
