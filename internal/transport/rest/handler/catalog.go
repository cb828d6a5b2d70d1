package handler

import (
	"careerchat/internal/assessment"
	"careerchat/internal/model"
	"net/http"
)

// CatalogHandler serves the section table
type CatalogHandler struct {
	catalog *assessment.Catalog
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *assessment.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type catalogSection struct {
	Key           string             `json:"key"`
	Title         string             `json:"title"`
	RequiredCount int                `json:"requiredCount"`
	TypeSequence  []model.AnswerType `json:"typeSequence"`
}

type catalogResponse struct {
	TotalQuestions int              `json:"totalQuestions"`
	Sections       []catalogSection `json:"sections"`
}

// Get handles GET /v1/catalog
//
//	@Summary	Assessment sections in order
//	@Tags		catalog
//	@Produce	json
//	@Success	200	{object}	catalogResponse
//	@Router		/v1/catalog [get]
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := catalogResponse{TotalQuestions: h.catalog.TotalQuestions()}
	for _, s := range h.catalog.Sections() {
		resp.Sections = append(resp.Sections, catalogSection{
			Key:           s.Key,
			Title:         s.Title,
			RequiredCount: s.RequiredCount,
			TypeSequence:  s.TypeSequence,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
