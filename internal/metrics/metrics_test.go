package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivierh59500/sankey-flow-go/internal/flow"
)

type writer interface {
	Write(*dto.Metric) error
}

func value(t *testing.T, m writer) *dto.Metric {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, m.Write(&metric))
	return &metric
}

func TestRecordTick(t *testing.T) {
	r := NewRegistry()

	r.RecordTick(flow.TickReport{Spawned: 3, Live: 3}, time.Millisecond)
	r.RecordTick(flow.TickReport{Spawned: 1, Arrived: 2, Dropped: 1, Live: 1}, time.Millisecond)

	assert.Equal(t, 2.0, value(t, r.TicksTotal).Counter.GetValue())
	assert.Equal(t, 4.0, value(t, r.SpawnedTotal).Counter.GetValue())
	assert.Equal(t, 2.0, value(t, r.ArrivedTotal).Counter.GetValue())
	assert.Equal(t, 1.0, value(t, r.DroppedTotal).Counter.GetValue())
	assert.Equal(t, 1.0, value(t, r.LiveParticles).Gauge.GetValue())
	assert.Equal(t, uint64(2), value(t, r.TickDuration).Histogram.GetSampleCount())
}

func TestRecordArrivalsAndRestart(t *testing.T) {
	r := NewRegistry()
	r.RecordArrivals([]flow.Arrival{
		{Leaf: "/root/A", Group: "vegan", Count: 4},
		{Leaf: "/root/A", Group: "non-vegan", Count: 1},
	})

	g, err := r.Arrivals.GetMetricWithLabelValues("/root/A", "vegan")
	require.NoError(t, err)
	assert.Equal(t, 4.0, value(t, g).Gauge.GetValue())

	r.RecordRestart()
	assert.Equal(t, 1.0, value(t, r.RestartsTotal).Counter.GetValue())

	families, err := r.GetPrometheusRegistry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		assert.NotEqual(t, "sankeyflow_arrivals", f.GetName(), "arrivals survive a restart")
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.SetRoutes(7)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "sankeyflow_routes 7")
}
