package service

import (
	"fmt"
	"math"

	geojson "github.com/paulmach/go.geojson"

	"github.com/jengzang/mapnotes-backend-go/internal/models"
	"github.com/jengzang/mapnotes-backend-go/internal/spatial"
	"github.com/jengzang/mapnotes-backend-go/internal/topology"
)

// Topology runs polygon operations for the overlay layers
type Topology interface {
	Buffer(points []spatial.Point, closed bool, radiusM float64) ([]topology.Polygon, error)
	Dissolve(polygons [][]spatial.Point) ([]topology.Polygon, error)
}

// BufferRequest selects the shape to buffer: a stored entity or raw points
type BufferRequest struct {
	EntityID string         `json:"entityId"`
	Points   []models.Point `json:"points"`
	Closed   bool           `json:"closed"`
	RadiusM  float64        `json:"radiusM"`
}

// DissolveRequest lists polygons to merge, by entity id or as raw rings
type DissolveRequest struct {
	EntityIDs []string         `json:"entityIds"`
	Polygons  [][]models.Point `json:"polygons"`
}

// GeometryService computes derived overlays from workspace entities
type GeometryService struct {
	topo      Topology
	workspace *WorkspaceService
}

// NewGeometryService creates a new geometry service
func NewGeometryService(topo Topology, workspace *WorkspaceService) *GeometryService {
	return &GeometryService{topo: topo, workspace: workspace}
}

// Buffer returns the zone within RadiusM meters of the requested shape
func (s *GeometryService) Buffer(req BufferRequest) (*geojson.FeatureCollection, error) {
	if !(req.RadiusM > 0) || math.IsInf(req.RadiusM, 0) {
		return nil, fmt.Errorf("%w: buffer radius must be positive", models.ErrValidation)
	}

	points, closed, radius := req.Points, req.Closed, req.RadiusM
	if req.EntityID != "" {
		e, _, err := s.workspace.GetEntity(req.EntityID)
		if err != nil {
			return nil, err
		}
		points = e.Shape.Vertices()
		closed = e.Kind().IsRing()
		if c, ok := e.Shape.(*models.Circle); ok {
			// the buffer of a disc is a wider disc
			radius += c.RadiusM
		}
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: nothing to buffer", models.ErrValidation)
	}
	for _, p := range points {
		if !p.IsFinite() {
			return nil, fmt.Errorf("%w: non-finite coordinate", models.ErrValidation)
		}
	}

	polygons, err := s.topo.Buffer(points, closed, radius)
	if err != nil {
		return nil, err
	}
	return featureCollection(polygons), nil
}

// Dissolve merges the requested polygons into their union
func (s *GeometryService) Dissolve(req DissolveRequest) (*geojson.FeatureCollection, error) {
	rings := make([][]spatial.Point, 0, len(req.EntityIDs)+len(req.Polygons))
	for _, id := range req.EntityIDs {
		e, _, err := s.workspace.GetEntity(id)
		if err != nil {
			return nil, err
		}
		if !e.Kind().IsRing() {
			return nil, fmt.Errorf("%w: entity %q is a %s, not a polygon", models.ErrValidation, id, e.Kind())
		}
		rings = append(rings, e.Shape.Vertices())
	}
	for i, ring := range req.Polygons {
		if len(spatial.OpenRing(ring)) < 3 {
			return nil, fmt.Errorf("%w: polygon %d needs at least 3 points", models.ErrValidation, i)
		}
		rings = append(rings, ring)
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("%w: nothing to dissolve", models.ErrValidation)
	}

	polygons, err := s.topo.Dissolve(rings)
	if err != nil {
		return nil, err
	}
	return featureCollection(polygons), nil
}

func featureCollection(polygons []topology.Polygon) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, poly := range polygons {
		if len(poly) == 0 {
			continue
		}
		rings := make([][][]float64, len(poly))
		for i, ring := range poly {
			closed := spatial.CloseRing(ring)
			rings[i] = make([][]float64, len(closed))
			for j, p := range closed {
				rings[i][j] = []float64{p.Lng, p.Lat}
			}
		}
		f := geojson.NewPolygonFeature(rings)
		f.SetProperty("areaM2", spatial.Area(poly[0]))
		fc.AddFeature(f)
	}
	return fc
}
