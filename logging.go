package persist

import "time"

// HydrationEvent describes one hydration attempt for logging.
type HydrationEvent struct {
	AttemptID   string
	Key         string
	FromVersion int
	ToVersion   int
	Duration    time.Duration
	Reset       bool
	Err         error
}

// HydrationLogger records hydration attempts.
type HydrationLogger interface {
	LogHydration(HydrationEvent)
}

// HydrationLoggerFunc adapts a function to HydrationLogger.
type HydrationLoggerFunc func(HydrationEvent)

// LogHydration implements HydrationLogger.
func (f HydrationLoggerFunc) LogHydration(event HydrationEvent) {
	if f != nil {
		f(event)
	}
}

type noopHydrationLogger struct{}

func (noopHydrationLogger) LogHydration(HydrationEvent) {}
