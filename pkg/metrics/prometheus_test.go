package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderIsSingleton(t *testing.T) {
	assert.Same(t, New(), New())
}

func TestRecorderCounts(t *testing.T) {
	r := New()
	before := testutil.ToFloat64(r.cacheLookups.WithLabelValues("metrics_test", "hit"))
	r.RecordCacheLookup("metrics_test", true)
	r.RecordCacheLookup("metrics_test", false)
	assert.Equal(t, before+1, testutil.ToFloat64(r.cacheLookups.WithLabelValues("metrics_test", "hit")))

	r.RecordFallback("metrics_test", "global")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fallbacks.WithLabelValues("metrics_test", "global")))
}
