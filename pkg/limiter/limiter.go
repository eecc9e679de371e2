// Package limiter 提供基于令牌桶的接口限流
// Package limiter provides token-bucket based endpoint rate limiting
package limiter

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face 限流器接口
type Face interface {
	// Key 从请求中提取限流键
	Key(c *gin.Context) string
	// GetBucket 获取限流键对应的令牌桶
	GetBucket(key string) (*ratelimit.Bucket, bool)
	// AddBuckets 注册限流规则
	AddBuckets(rules ...BucketRule) Face
}

// BucketRule 令牌桶规则
type BucketRule struct {
	// Key 限流键，通常为路由路径
	Key string
	// FillInterval 令牌填充间隔
	FillInterval time.Duration
	// Capacity 桶容量
	Capacity int64
	// Quantum 每次填充的令牌数
	Quantum int64
}

// Limiter 通用限流器
type Limiter struct {
	limiterBuckets map[string]*ratelimit.Bucket
}

// MethodLimiter 按请求路径限流
type MethodLimiter struct {
	*Limiter
}

// NewMethodLimiter 创建按路径限流的限流器
func NewMethodLimiter() Face {
	return MethodLimiter{
		Limiter: &Limiter{limiterBuckets: make(map[string]*ratelimit.Bucket)},
	}
}

// Key 使用请求路径作为限流键
func (l MethodLimiter) Key(c *gin.Context) string {
	return c.FullPath()
}

func (l MethodLimiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	bucket, ok := l.limiterBuckets[key]
	return bucket, ok
}

func (l MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	for _, rule := range rules {
		if _, ok := l.limiterBuckets[rule.Key]; !ok {
			l.limiterBuckets[rule.Key] = ratelimit.NewBucketWithQuantum(rule.FillInterval, rule.Capacity, rule.Quantum)
		}
	}
	return l
}
