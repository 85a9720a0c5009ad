package events

import "github.com/asaskevich/EventBus"

// GlobalBus is the shared event bus for the entire application
var GlobalBus EventBus.Bus

func init() {
	GlobalBus = EventBus.New()
}

// Event types for application-wide coordination. The comment after each
// topic lists the handler arguments.
const (
	// Shutdown events
	EventShutdownRequested = "app:shutdown:requested" // ()

	// Refresh events
	EventRefreshRequested = "refresh:requested" // (version uint64, reason string)
	EventRefreshApplied   = "refresh:applied"   // (version uint64, tabs int)
	EventRefreshDropped   = "refresh:dropped"   // (version uint64)

	// Source events
	EventRemoteFetched = "remote:fetched" // (entries int)
	EventRemoteFailed  = "remote:failed"  // (err error)
	EventLocalChanged  = "local:changed"  // (path string)

	// Selection events
	EventSelectionChanged = "selection:changed" // (tab string, checked int)
)

// Publish sends on bus, falling back to GlobalBus when bus is nil.
func Publish(bus EventBus.Bus, topic string, args ...interface{}) {
	if bus == nil {
		bus = GlobalBus
	}
	bus.Publish(topic, args...)
}
