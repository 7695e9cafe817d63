package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sokoerp/etims-bridge/interfaces"
)

// MultiBackend implements interfaces.AuditBackend over multiple backends:
// records are stored to every available backend and fetched from the first
// one that has them.
type MultiBackend struct {
	backends []interfaces.AuditBackend
	log      *slog.Logger
}

// NewMultiBackend creates a redundant audit backend.
func NewMultiBackend(backends []interfaces.AuditBackend, log *slog.Logger) *MultiBackend {
	if log == nil {
		log = slog.Default()
	}
	return &MultiBackend{backends: backends, log: log}
}

// Store saves the record to all available backends. It succeeds if at least
// one backend accepted the record.
func (m *MultiBackend) Store(ctx context.Context, record interfaces.AuditRecord) error {
	start := time.Now()
	var success bool
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Audit backend unavailable", slog.String("backend", backend.Name()))
			continue
		}

		if err := backend.Store(ctx, record); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Debug("Failed to store audit record",
				slog.String("backend", backend.Name()), "err", err)
			continue
		}
		success = true
	}

	if !success {
		m.log.Error("All audit backends failed to store record",
			slog.String("recordId", record.ID),
			slog.Int("failedBackends", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("all audit backends failed to store %s: %v", record.ID, errs)
	}
	return nil
}

// Fetch returns the record from the first backend that has it.
func (m *MultiBackend) Fetch(ctx context.Context, id string) (interfaces.AuditRecord, error) {
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			continue
		}

		record, err := backend.Fetch(ctx, id)
		if err == nil {
			return record, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
	}

	return interfaces.AuditRecord{}, fmt.Errorf("all audit backends failed to fetch %s: %v", id, errs)
}

// Available reports whether any backend is available.
func (m *MultiBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns a combined identifier of the underlying backends.
func (m *MultiBackend) Name() string {
	names := make([]string, len(m.backends))
	for i, backend := range m.backends {
		names[i] = backend.Name()
	}
	return fmt.Sprintf("multi[%s]", strings.Join(names, ","))
}

// LocationURI returns the URIs of the underlying backends.
func (m *MultiBackend) LocationURI() string {
	uris := make([]string, len(m.backends))
	for i, backend := range m.backends {
		uris[i] = backend.LocationURI()
	}
	return strings.Join(uris, ",")
}
