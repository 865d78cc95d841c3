package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/nacam403/phenyl"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() phenyl.MetricsSnapshot
}

type observedCounter struct {
	id         phenyl.MetricID
	instrument metric.Int64ObservableCounter
}

// Exporter mirrors the engine's counters into an OpenTelemetry meter.
type Exporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
}

// NewExporter registers observable counters for every engine metric. Close
// the exporter to unregister the collection callback.
func NewExporter(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	ids := phenyl.MetricIDs()
	exporter := &Exporter{
		source:   source,
		counters: make([]observedCounter, 0, len(ids)),
	}

	observables := make([]metric.Observable, 0, len(ids))
	for _, id := range ids {
		ins, err := meter.Int64ObservableCounter(id.String(),
			metric.WithDescription("phenyl engine counter"))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", id, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: id, instrument: ins})
		observables = append(observables, ins)
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		snap := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			o.ObserveInt64(c.instrument, int64(snap.Counters[c.id]))
		}
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register metrics callback: %w", err)
	}
	exporter.registration = registration
	return exporter, nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
