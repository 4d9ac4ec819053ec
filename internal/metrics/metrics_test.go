package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_GathersOwnCollectors(t *testing.T) {
	reg := NewRegistry()

	TestsStarted.WithLabelValues("precision").Inc()
	PromptTimeouts.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["typebot_tests_started_total"])
	assert.True(t, names["typebot_prompt_timeouts_total"])
	assert.True(t, names["go_goroutines"])
}

func TestNewRegistry_Independent(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRegistry()
		NewRegistry()
	})
	before := testutil.ToFloat64(Panics)
	Panics.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Panics))
}
