// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// must run before TestPromMetrics switches the provider.
func TestNoopMetrics(t *testing.T) {
	assert.True(t, NoOp())
	server := httptest.NewServer(HTTPHandler())
	t.Cleanup(server.Close)

	Counter("count1").Add(1)
	CounterVec("countVec1", []string{"method"}).AddWithLabel(1, map[string]string{"nonsense": "ok"})
	Gauge("gauge1").Set(3)
	GaugeVec("gaugeVec1", []string{"method"}).SetWithLabel(1, map[string]string{"nonsense": "ok"})
	Histogram("hist1", nil).Observe(3)
	HistogramVec("hist2", []string{"method"}, nil).ObserveWithLabels(1, map[string]string{"nonsense": "ok"})

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func gather(t *testing.T) map[string]*dto.MetricFamily {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()
	assert.False(t, NoOp())

	lazy := LazyLoadCounter("lazy_count")
	count := Counter("count")
	countVec := CounterVec("count_vec", []string{"method"})
	gauge := Gauge("gauge")
	gaugeVec := GaugeVec("gauge_vec", []string{"method"})
	hist := Histogram("hist", BucketGas)
	histVec := HistogramVec("hist_vec", []string{"method"}, BucketUsers)

	// same meter is handed out for the same name
	assert.Same(t, count, Counter("count"))

	lazy().Add(2)
	count.Add(1)
	Counter("count").Add(1)
	for i := 0; i < 10; i++ {
		m := "stake"
		if i%2 == 1 {
			m = "claim"
		}
		countVec.AddWithLabel(1, map[string]string{"method": m})
		gaugeVec.AddWithLabel(int64(i), map[string]string{"method": m})
		hist.Observe(int64(i * 1000))
		histVec.ObserveWithLabels(int64(i), map[string]string{"method": m})
	}
	gauge.Set(42)
	gauge.Add(-2)
	gaugeVec.SetWithLabel(7, map[string]string{"method": "stake"})

	mfs := gather(t)
	assert.Equal(t, float64(2), mfs["delegation_lazy_count"].Metric[0].GetCounter().GetValue())
	assert.Equal(t, float64(2), mfs["delegation_count"].Metric[0].GetCounter().GetValue())
	assert.Len(t, mfs["delegation_count_vec"].Metric, 2)
	assert.Equal(t, float64(40), mfs["delegation_gauge"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, uint64(10), mfs["delegation_hist"].Metric[0].GetHistogram().GetSampleCount())
	assert.Equal(t, float64(45_000), mfs["delegation_hist"].Metric[0].GetHistogram().GetSampleSum())
	assert.Len(t, mfs["delegation_hist_vec"].Metric, 2)

	for _, m := range mfs["delegation_gauge_vec"].Metric {
		if m.GetLabel()[0].GetValue() == "stake" {
			assert.Equal(t, float64(7), m.GetGauge().GetValue())
		} else {
			assert.Equal(t, float64(1+3+5+7+9), m.GetGauge().GetValue())
		}
	}

	server := httptest.NewServer(HTTPHandler())
	t.Cleanup(server.Close)
	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
