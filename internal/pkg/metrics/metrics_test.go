package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersOnCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TokenRefreshTotal.WithLabelValues("success").Inc()
	m.IndexingOutcomesTotal.WithLabelValues("inspect", "success").Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenRefreshTotal.WithLabelValues("success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IndexingOutcomesTotal.WithLabelValues("inspect", "success")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
