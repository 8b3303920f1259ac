package plugin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leeforge/hookkit/hook"
)

var (
	// ErrBusClosed is returned when publishing to a closed EventBus.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrPublishTimeout is returned when the publish buffer is full and context expires.
	ErrPublishTimeout = errors.New("event publish timeout: buffer full")
)

// Lifecycle topics published by the Manager.
const (
	TopicLoaded   = "plugin.loaded"
	TopicEnabled  = "plugin.enabled"
	TopicDisabled = "plugin.disabled"
	TopicUnloaded = "plugin.unloaded"
	TopicFailed   = "plugin.failed"
)

// Event represents a system or plugin event.
type Event struct {
	ID        uuid.UUID // set by the bus when empty
	Name      string    // e.g. "plugin.enabled"
	Data      any       // payload
	Source    string    // originating plugin id
	Timestamp time.Time // when the event was created
}

// Transition is the Data of every lifecycle event.
type Transition struct {
	Plugin hook.PluginID
	From   State
	To     State
	Cycle  uuid.UUID // load cycle the transition belongs to
	Hooks  int       // hooks registered (load) or removed (unload)
	Err    error     // set on plugin.failed and on failed unload callbacks
}

// EventHandler is the typed handler for events.
type EventHandler func(ctx context.Context, event Event) error

// Subscription represents an active event subscription.
type Subscription interface {
	Unsubscribe()
}

// EventBus is the single event mechanism for plugin communication.
type EventBus interface {
	// Publish sends an event. Blocks if buffer is full until ctx expires.
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a handler for a topic. Returns a Subscription for unsubscribing.
	Subscribe(topic string, handler EventHandler) Subscription

	// Close drains pending events and waits for in-flight handlers to complete.
	Close() error
}
