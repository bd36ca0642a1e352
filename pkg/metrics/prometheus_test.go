package metrics

import (
	"testing"

	"TipsEngine/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordCalculation("v1", models.QualityFull)
	r.RecordCalculation("v1", models.QualityFull)
	r.RecordCalculation("v2", models.QualityMinimal)
	r.RecordRatingUpdate("v1")
	r.RecordValueBet(models.OutcomeDraw)
	r.RecordError("calculate")
	r.RecordLatency("calculate", 0.02)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.calculations.WithLabelValues("v1", "full")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.calculations.WithLabelValues("v2", "minimal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ratingUpdates.WithLabelValues("v1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.valueBets.WithLabelValues("draw")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("calculate")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}
