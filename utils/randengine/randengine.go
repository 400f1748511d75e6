// 随机数引擎，包装了golang.org/x/exp/rand，用于离线仿真中生成可复现的交通流
package randengine

import (
	"flag"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成

	log = logrus.WithField("module", "randengine")
)

// Engine 随机数引擎（非线程安全）
type Engine struct {
	*rand.Rand
}

// New 创建随机数引擎
// 功能：以seed加上种子偏移量创建随机数源，相同种子得到相同序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// Uniform 生成[lo, hi)内均匀分布的随机数
func (e *Engine) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*e.Float64()
}

// DiscreteDistribution 按给定权重生成随机下标
// 参数：weight-权重数组，元素非负且总和为正
// 返回：[0, len(weight))内的下标
func (e *Engine) DiscreteDistribution(weight []float64) int {
	random := .0
	for _, w := range weight {
		random += w
	}
	random *= e.Float64()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return i
		}
	}
	log.Panicf("DiscreteDistribution: sum: %f random: %f", sum, random)
	return -1
}

// PTrue 以概率p返回true
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}
