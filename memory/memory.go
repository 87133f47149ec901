package memory

import (
	"log/slog"

	"github.com/next-trace/scg-mics/adapters/inmemory"
	cbus "github.com/next-trace/scg-mics/contract/bus"
	"github.com/next-trace/scg-mics/messagebus"
)

// New constructs a message bus whose traffic is mirrored to an in-memory
// recorder, and returns a cleanup function that closes the bus.
func New(logger *slog.Logger) (*messagebus.Bus, *inmemory.Recorder, func()) {
	rec := inmemory.New()
	b := messagebus.New(messagebus.WithLogger(logger), messagebus.WithTap(rec, cbus.PublishOptions{}))
	cleanup := func() { _ = b.Close() }

	return b, rec, cleanup
}
