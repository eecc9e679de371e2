package timex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestTimeUnixConversions 测试时间戳转换方法
func TestTimeUnixConversions(t *testing.T) {
	fixed := time.Date(2025, 6, 15, 8, 30, 0, 0, time.UTC)
	tt := Time(fixed)

	assert.Equal(t, fixed.Unix(), tt.Unix())
	assert.Equal(t, fixed.UnixMilli(), tt.UnixMilli())
	assert.Equal(t, fixed.UnixMicro(), tt.UnixMicro())
	assert.Equal(t, fixed.UnixNano(), tt.UnixNano())
}

// TestTimeIsStatic 测试转换结果不随当前时间变化
func TestTimeIsStatic(t *testing.T) {
	fixed := time.Date(2025, 6, 15, 8, 30, 0, 0, time.UTC)
	tt := Time(fixed)

	before := tt.UnixMilli()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, before, tt.UnixMilli())
}

// TestNow 测试 Now 返回当前时间
func TestNow(t *testing.T) {
	delta := time.Since(time.Time(Now()))
	assert.Less(t, delta, time.Second)
}
