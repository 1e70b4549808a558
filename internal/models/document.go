package models

// StoredDocument is a saved GeoJSON document as kept in the documents table
type StoredDocument struct {
	Name         string `json:"name" db:"name"`
	Body         []byte `json:"-" db:"body"`
	Version      string `json:"version" db:"version"`
	FeatureCount int    `json:"featureCount" db:"feature_count"`
	SavedAt      string `json:"savedAt" db:"saved_at"` // RFC 3339
}

// DocumentSummary describes a stored document without its body
type DocumentSummary struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	FeatureCount int    `json:"featureCount"`
	SavedAt      string `json:"savedAt"`
}

// DocumentsResponse is a paginated list of stored documents
type DocumentsResponse struct {
	Data       []DocumentSummary `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// DocumentFilter represents the query parameters for listing documents
type DocumentFilter struct {
	Prefix   string `form:"prefix"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// Normalize applies paging defaults
func (f *DocumentFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 50
	}
	if f.PageSize > 500 {
		f.PageSize = 500
	}
}
