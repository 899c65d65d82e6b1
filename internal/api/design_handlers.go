package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mycase/internal/models"
)

const FEATURED_DESIGNS_LIMIT = 8

type catalogResponse struct {
	Designs    []models.Design `json:"designs"`
	Categories []string        `json:"categories"`
	Brands     []string        `json:"brands"`
	Category   string          `json:"category"`
	Brand      string          `json:"brand"`
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ListDesigns - каталог (GET /api/designs?category=&brand=).
// Бренд учитывается, только если он есть в выбранной категории.
// The brand filter applies only when the brand exists in the selected category.
func (a *API) ListDesigns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := r.URL.Query().Get("category")
	brand := r.URL.Query().Get("brand")

	categories, err := a.deps.Store.ListCategories(ctx)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	brands, err := a.deps.Store.ListBrands(ctx, category)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	if !contains(brands, brand) {
		brand = ""
	}

	designs, err := a.deps.Store.ListDesigns(ctx, models.DesignFilter{
		Category:   category,
		Brand:      brand,
		ActiveOnly: true,
	})
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}

	writeJSONSuccess(w, "", catalogResponse{
		Designs:    designs,
		Categories: categories,
		Brands:     brands,
		Category:   category,
		Brand:      brand,
	})
}

// FeaturedDesigns - случайная подборка для главной страницы.
func (a *API) FeaturedDesigns(w http.ResponseWriter, r *http.Request) {
	designs, err := a.deps.Store.ListDesigns(r.Context(), models.DesignFilter{
		ActiveOnly: true,
		Random:     true,
		Limit:      FEATURED_DESIGNS_LIMIT,
	})
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSONSuccess(w, "", designs)
}

// GetDesign - страница дизайна. Выключенные дизайны не видны.
func (a *API) GetDesign(w http.ResponseWriter, r *http.Request) {
	design, err := a.deps.Store.GetDesignBySlug(r.Context(), chi.URLParam(r, "slug"), true)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSONSuccess(w, "", design)
}
