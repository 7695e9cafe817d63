package transmission

import (
	"log/slog"
	"sync"

	"github.com/sokoerp/etims-bridge/interfaces"
)

// MemorySequence is an in-memory SequenceSource with one monotonically
// increasing counter per document kind. Production deployments should back
// sequence numbers with the same store as the documents themselves; this
// implementation serves tests, the CLI and single-process setups.
type MemorySequence struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemorySequence creates a sequence source with all counters at zero; the
// first number drawn for each kind is 1.
func NewMemorySequence() *MemorySequence {
	return &MemorySequence{counters: make(map[string]int64)}
}

// Next returns the next sequence number for the given document kind.
func (s *MemorySequence) Next(kind string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[kind]++
	return s.counters[kind], nil
}

// LogNotifier is the default Notifier: it writes operator summaries to the
// structured log at a level matching the severity.
type LogNotifier struct {
	Log *slog.Logger
}

// Notify implements interfaces.Notifier.
func (n *LogNotifier) Notify(severity interfaces.Severity, title, message string) {
	switch severity {
	case interfaces.SeverityError:
		n.Log.Error(title, "detail", message)
	case interfaces.SeverityWarning:
		n.Log.Warn(title, "detail", message)
	default:
		n.Log.Info(title, "detail", message)
	}
}
