package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smpp-relay-core/submit"
)

func TestExporter_DescribeEmitsEveryDesc(t *testing.T) {
	e := New()
	ch := make(chan *prometheus.Desc, len(e.desc))
	e.Describe(ch)
	close(ch)

	count := 0
	for range ch {
		count++
	}
	assert.Equal(t, len(e.desc), count)
}

func TestExporter_CollectReflectsCounters(t *testing.T) {
	e := New()
	e.IncPDUClassified("sms")
	e.IncPDUClassified("sms")
	e.IncDeliveryReport("pdu")
	e.IncMultipartComplete()
	e.ObserveSubmit(submit.StrategyLong, 3)

	ch := make(chan prometheus.Metric, 64)
	e.Collect(ch)
	close(ch)

	var metrics []prometheus.Metric
	for m := range ch {
		metrics = append(metrics, m)
	}
	require.NotEmpty(t, metrics)
}
