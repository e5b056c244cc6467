package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountersDerivedFields(t *testing.T) {
	var c Counters
	assert.Zero(t, c.AvgResponseTime())
	assert.Zero(t, c.UptimePercentage())

	c.Add(true, 200)
	c.Add(true, 150)
	c.Add(false, 0)

	assert.Equal(t, int64(3), c.TotalChecks)
	assert.Equal(t, c.TotalChecks, c.SuccessfulChecks+c.FailedChecks)
	assert.InDelta(t, 116.67, c.AvgResponseTime(), 0.01)
	assert.InDelta(t, 66.67, c.UptimePercentage(), 0.01)
}
