package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()

	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestRegistryGathersPricebookMetrics(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	SnapshotsLoadedTotal.Inc()
	LevelsDroppedTotal.WithLabelValues(SideBid).Add(2)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["pricebook_snapshots_loaded_total"])
	assert.True(t, names["pricebook_levels_dropped_total"])
	assert.True(t, names["go_goroutines"])

	assert.GreaterOrEqual(t, testutil.ToFloat64(LevelsDroppedTotal.WithLabelValues(SideBid)), 2.0)
}
