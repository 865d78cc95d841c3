package phenyl

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricRunTotal counts every call to Engine.Run.
	MetricRunTotal MetricID = iota
	// MetricRunFailure counts runs that resolved to an error envelope.
	MetricRunFailure
	// MetricInvalidRequest counts malformed command shapes.
	MetricInvalidRequest
	// MetricUnauthorized counts ACL rejections and failed verifications.
	MetricUnauthorized
	// MetricBadRequest counts validation rejections and unknown-session logouts.
	MetricBadRequest
	// MetricNotFound counts unrecognized command variants and missing entities.
	MetricNotFound
	// MetricInternalError counts failures of the generic kind.
	MetricInternalError
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess
	// MetricLoginFailure counts failed logins.
	MetricLoginFailure
	// MetricLogout counts successful logouts.
	MetricLogout
	// MetricSessionCreated counts sessions materialized on login.
	MetricSessionCreated
	// MetricSessionDeleted counts sessions destroyed on logout.
	MetricSessionDeleted

	metricCount
)

var metricNames = map[MetricID]string{
	MetricRunTotal:       "phenyl_run_total",
	MetricRunFailure:     "phenyl_run_failure_total",
	MetricInvalidRequest: "phenyl_error_invalid_request_total",
	MetricUnauthorized:   "phenyl_error_unauthorized_total",
	MetricBadRequest:     "phenyl_error_bad_request_total",
	MetricNotFound:       "phenyl_error_not_found_total",
	MetricInternalError:  "phenyl_error_internal_total",
	MetricLoginSuccess:   "phenyl_login_success_total",
	MetricLoginFailure:   "phenyl_login_failure_total",
	MetricLogout:         "phenyl_logout_total",
	MetricSessionCreated: "phenyl_session_created_total",
	MetricSessionDeleted: "phenyl_session_deleted_total",
}

// String returns the exporter-facing counter name.
func (id MetricID) String() string {
	if name, ok := metricNames[id]; ok {
		return name
	}
	return "phenyl_unknown"
}

// MetricIDs lists every counter in declaration order, for exporters.
func MetricIDs() []MetricID {
	ids := make([]MetricID, 0, metricCount)
	for id := MetricID(0); id < metricCount; id++ {
		ids = append(ids, id)
	}
	return ids
}

// Metrics is a fixed set of atomic counters. All methods are safe for
// concurrent use and nil-receiver safe so a disabled engine costs nothing.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

// Inc bumps one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricIncKind(kind ErrorKind) {
	switch kind {
	case KindInvalidRequest:
		e.metricInc(MetricInvalidRequest)
	case KindUnauthorized:
		e.metricInc(MetricUnauthorized)
	case KindBadRequest:
		e.metricInc(MetricBadRequest)
	case KindNotFound:
		e.metricInc(MetricNotFound)
	default:
		e.metricInc(MetricInternalError)
	}
}

// MetricsSnapshot exposes the engine's counters for exporters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}
