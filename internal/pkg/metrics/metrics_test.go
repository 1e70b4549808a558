package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	before := value(t, httpRequestsTotal.WithLabelValues("GET", "/ping/:id", "418"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping/2", nil))

	after := value(t, httpRequestsTotal.WithLabelValues("GET", "/ping/:id", "418"))
	assert.Equal(t, before+2, after)
}

func TestObserveDocument(t *testing.T) {
	ok := DocumentOps.WithLabelValues("save", "ok")
	failed := DocumentOps.WithLabelValues("save", "error")
	okBefore, failedBefore := value(t, ok), value(t, failed)

	ObserveDocument("save", nil)
	ObserveDocument("save", errors.New("disk full"))

	assert.Equal(t, okBefore+1, value(t, ok))
	assert.Equal(t, failedBefore+1, value(t, failed))
}

func TestHandlerServesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())
	Entities.Set(3)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mapnotes_entities_current 3")
}
