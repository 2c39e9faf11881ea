package moldmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe_RecordsResult(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()
	m.MustRegister(reg)

	require.NoError(t, m.Observe("finalize", func() error { return nil }))
	require.Error(t, m.Observe("finalize", func() error { return errors.New("boom") }))

	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, fam := range families {
		if fam.GetName() != "moldctl_operation_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	require.Equal(t, float64(2), total)
}

func TestMetrics_RecordPluginIO(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()
	m.MustRegister(reg)

	m.RecordPluginIO("jsonplugin", "config_write", nil)

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, fam := range families {
		if fam.GetName() == "moldctl_plugin_io_total" {
			found = true
			require.Len(t, fam.GetMetric(), 1)
			var m0 *dto.Metric
			m0 = fam.GetMetric()[0]
			require.Equal(t, float64(1), m0.GetCounter().GetValue())
		}
	}
	require.True(t, found)
}
