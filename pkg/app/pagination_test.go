package app

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestGinContext(t *testing.T, target string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestNewPager(t *testing.T) {
	c := newTestGinContext(t, "/api/sections?page=3&pageSize=20")

	pager := NewPager(c, 55)
	assert.Equal(t, 3, pager.Page)
	assert.Equal(t, 20, pager.PageSize)
	assert.Equal(t, 55, pager.TotalRows)
}

func TestNewPagerDefaults(t *testing.T) {
	// 未携带分页参数时回退到默认值
	c := newTestGinContext(t, "/api/sections")

	pager := NewPager(c, 0)
	assert.Equal(t, 1, pager.Page)
	assert.Equal(t, DefaultPaginationConfig.DefaultPageSize, pager.PageSize)
	assert.Equal(t, 0, pager.TotalRows)
}

func TestGetPageSizeCapped(t *testing.T) {
	c := newTestGinContext(t, "/api/sections?pageSize=5000")
	assert.Equal(t, DefaultPaginationConfig.MaxPageSize, GetPageSize(c))
}
