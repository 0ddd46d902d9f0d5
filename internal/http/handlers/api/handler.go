package api

import "github.com/loyalty-next/internal/provider"

// Handler retailer-facing API handlers
type Handler struct {
	*provider.Container
}

// New creates the API handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func normalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
