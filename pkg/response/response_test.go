package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestSuccess(t *testing.T) {
	w, resp := serve(func(c *gin.Context) { Success(c, gin.H{"n": 1}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, map[string]interface{}{"n": float64(1)}, resp.Data)
}

func TestErrorCarriesDetail(t *testing.T) {
	w, resp := serve(func(c *gin.Context) { NotFound(c, "Entity not found", errors.New("not found: \"x\"")) })
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 404, resp.Code)
	assert.Equal(t, "Entity not found", resp.Message)
	assert.Equal(t, `not found: "x"`, resp.Error)
	assert.Nil(t, resp.Data)
}
