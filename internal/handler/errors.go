package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"

	"github.com/jengzang/mapnotes-backend-go/internal/codec"
	"github.com/jengzang/mapnotes-backend-go/internal/collection"
	"github.com/jengzang/mapnotes-backend-go/internal/drawing"
	"github.com/jengzang/mapnotes-backend-go/internal/measurement"
	"github.com/jengzang/mapnotes-backend-go/internal/models"
	"github.com/jengzang/mapnotes-backend-go/internal/repository"
	"github.com/jengzang/mapnotes-backend-go/internal/topology"
	"github.com/jengzang/mapnotes-backend-go/pkg/response"
)

// statusOf maps domain errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, codec.ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, collection.ErrNotFound), errors.Is(err, repository.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, collection.ErrDuplicate),
		errors.Is(err, drawing.ErrInvalidState),
		errors.Is(err, measurement.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, topology.ErrEmpty):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// fail writes err with the status its kind maps to
func fail(c *gin.Context, message string, err error) {
	response.Error(c, statusOf(err), message, err)
}

// featureOf renders an entity the way it appears in a saved document
func featureOf(e *models.Entity, visible bool) *geojson.Feature {
	f := models.ToFeature(e)
	f.SetProperty(codec.PropVisible, visible)
	return f
}
