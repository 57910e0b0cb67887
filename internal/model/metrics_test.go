package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCountsAddFoldsUnknownKinds(t *testing.T) {
	var c ErrorCounts
	c.Add(ErrorTimeout)
	c.Add(ErrorRateLimit)
	c.Add(ErrorRateLimit)
	c.Add(ErrorException)
	c.Add(ErrorKind("unknown"))
	c.Add(ErrorService)

	assert.Equal(t, 1, c.Timeout)
	assert.Equal(t, 2, c.RateLimit)
	assert.Equal(t, 1, c.Exception)
	assert.Equal(t, 2, c.Service)
	assert.Equal(t, 6, c.Total())
	assert.Equal(t, 2, c.Get(ErrorRateLimit))
	assert.Equal(t, 0, c.Get(ErrorKind("unknown")))
}

func TestErrorCountsPlus(t *testing.T) {
	a := ErrorCounts{Timeout: 1, Auth: 2}
	b := ErrorCounts{Timeout: 3, Validation: 4, Exception: 1}

	assert.Equal(t, ErrorCounts{Timeout: 4, Auth: 2, Validation: 4, Exception: 1}, a.Plus(b))
}

func TestErrorKindKnown(t *testing.T) {
	for _, k := range ErrorKinds {
		assert.True(t, k.Known(), k)
	}
	assert.False(t, ErrorKind("not_found").Known())
}

func TestThroughputJSON(t *testing.T) {
	data, err := json.Marshal(ThroughputNotApplicable())
	require.NoError(t, err)
	assert.JSONEq(t, `"N/A"`, string(data))

	data, err = json.Marshal(MeasuredThroughput(0))
	require.NoError(t, err)
	assert.JSONEq(t, `0`, string(data))

	var tp Throughput
	require.NoError(t, json.Unmarshal([]byte(`12.5`), &tp))
	v, ok := tp.Value()
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	require.NoError(t, json.Unmarshal([]byte(`"N/A"`), &tp))
	assert.False(t, tp.Applicable())

	assert.Error(t, json.Unmarshal([]byte(`"fast"`), &tp))
}

func TestThroughputFormat(t *testing.T) {
	assert.Equal(t, "N/A", ThroughputNotApplicable().String())
	assert.Equal(t, "3.33", MeasuredThroughput(10.0/3).String())
	assert.Equal(t, "0.00", MeasuredThroughput(0).Format(2))
}

func TestAggregatedMetricsJSONKeepsFlatErrorColumns(t *testing.T) {
	agg := AggregatedModelMetrics{
		ModelName:   "M",
		Throughput:  ThroughputNotApplicable(),
		ErrorCounts: ErrorCounts{RateLimit: 3},
	}
	data, err := json.Marshal(agg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "N/A", decoded["throughput"])
	assert.EqualValues(t, 3, decoded["errors_rate_limit"])
}
