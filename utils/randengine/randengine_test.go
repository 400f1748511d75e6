package randengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/highway-planner/utils/randengine"
)

func TestDeterministic(t *testing.T) {
	a, b := randengine.New(42), randengine.New(42)
	for range 100 {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestUniform(t *testing.T) {
	e := randengine.New(1)
	for range 1000 {
		v := e.Uniform(10, 20)
		assert.GreaterOrEqual(t, v, 10.0)
		assert.Less(t, v, 20.0)
	}
}

func TestDiscreteDistribution(t *testing.T) {
	e := randengine.New(1)
	counts := make([]int, 3)
	for range 3000 {
		counts[e.DiscreteDistribution([]float64{1, 0, 2})]++
	}
	assert.Zero(t, counts[1])
	assert.Greater(t, counts[2], counts[0])
}

func TestPTrue(t *testing.T) {
	e := randengine.New(1)
	for range 100 {
		assert.False(t, e.PTrue(0))
		assert.True(t, e.PTrue(1))
	}
}
