package metrics

import (
	"strings"
	"time"
)

// Known control message types; anything else is counted as "unknown" so a
// misbehaving client cannot blow up label cardinality.
var knownMessageTypes = map[string]bool{
	"setHive":         true,
	"enterWorkspace":  true,
	"lockWorkspace":   true,
	"createWorkSpace": true,
	"deleteWorkSpace": true,
	"setStatus":       true,
	"invalid":         true,
}

func (m *Metrics) ConnectionOpened() {
	m.safeExecute("ConnectionOpened", func() {
		m.WSConnections.Inc()
	})
}

func (m *Metrics) ConnectionClosed() {
	m.safeExecute("ConnectionClosed", func() {
		m.WSConnections.Dec()
	})
}

// RecordMessage counts an inbound control message by type
func (m *Metrics) RecordMessage(messageType string) {
	m.safeExecute("RecordMessage", func() {
		if !knownMessageTypes[messageType] {
			messageType = "unknown"
		}
		m.WSMessagesTotal.WithLabelValues(messageType).Inc()
	})
}

// RecordRejection counts a control message the admission rules refused
func (m *Metrics) RecordRejection(action, reason string) {
	m.safeExecute("RecordRejection", func() {
		if !knownMessageTypes[action] {
			action = "unknown"
		}
		m.RejectionsTotal.WithLabelValues(action, reason).Inc()
	})
}

// RecordBroadcast records one full-state fan-out
func (m *Metrics) RecordBroadcast(duration time.Duration) {
	m.safeExecute("RecordBroadcast", func() {
		m.BroadcastsTotal.Inc()
		m.BroadcastDuration.Observe(duration.Seconds())
	})
}

// RecordStoreCall records room store call metrics
func (m *Metrics) RecordStoreCall(operation string, duration time.Duration, err error) {
	m.safeExecute("RecordStoreCall", func() {
		operation = strings.ToLower(operation)
		m.StoreCallDuration.WithLabelValues(operation).Observe(duration.Seconds())

		if err != nil {
			m.StoreErrors.WithLabelValues(operation).Inc()
		}
	})
}

// SetPresenceTotals refreshes the hive and user gauges
func (m *Metrics) SetPresenceTotals(hives, users int) {
	m.safeExecute("SetPresenceTotals", func() {
		m.HivesActive.Set(float64(hives))
		m.UsersOnline.Set(float64(users))
	})
}

func (m *Metrics) RecordMirrorError() {
	m.safeExecute("RecordMirrorError", func() {
		m.MirrorErrors.Inc()
	})
}
