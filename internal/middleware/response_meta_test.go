package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/internal/service"
)

func TestRecordViewCacheFillsResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/faculty/dashboard", func(c *gin.Context) {
		c.Set(ContextCallerKey, &models.Caller{ID: "u-1", Role: models.RoleFaculty})
		RecordViewCache(c, c.FullPath(), true)
		c.JSON(http.StatusOK, ResponseMeta(c))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/faculty/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, "/faculty/dashboard", meta["view"])
	assert.Equal(t, "faculty", meta["role"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestResponseMetaWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	RecordViewCache(c, "", false)

	meta := ResponseMeta(c)
	assert.Equal(t, false, meta["cache_hit"])
	assert.NotContains(t, meta, "view")
	assert.NotContains(t, meta, "processing_time_ms")
	assert.Nil(t, ResponseMeta(nil))
}

func TestMetricsLabelsUnmatchedRoutesByZone(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/admin/students/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/admin/students/s1", "/admin/students/s2", "/admin/wp-login.php"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	exposition := string(body)

	assert.Contains(t, exposition, `http_requests_total{method="GET",path="/admin/students/:id",status="204"} 2`)
	assert.Contains(t, exposition, `http_requests_total{method="GET",path="unmatched:admin",status="404"} 1`)
	assert.False(t, strings.Contains(exposition, "wp-login"))
	assert.EqualValues(t, 3, metrics.Snapshot().RequestsTotal)
}
