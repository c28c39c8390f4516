package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountersAdvance(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.TicketCreated()
	m.TicketCreated()
	m.AssignmentRecorded("auto", "assigned")
	m.StatusChanged("CLOSED")
	m.NotificationDelivered("email", nil)
	m.NotificationDelivered("email", errors.New("smtp down"))
	m.RecordRequest("/tickets", "GET", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticketsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.assignments.WithLabelValues("auto", "assigned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("CLOSED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.deliveries.WithLabelValues("email")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveryFailures.WithLabelValues("email")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/tickets", "GET", "200")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TicketCreated()
		m.RecordError("/x", "GET", "NOT_FOUND")
		m.NotificationDelivered("sms", nil)
	})
}
