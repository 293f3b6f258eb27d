package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studia-dev/classhub-api/internal/middleware"
	"github.com/studia-dev/classhub-api/internal/models"
	"github.com/studia-dev/classhub-api/internal/service"
)

// currentActor extracts the authenticated actor from the gin context. The
// JWT middleware guarantees the claims are present on protected routes; a
// missing value yields a zero actor that the services reject.
func currentActor(c *gin.Context) service.Actor {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return service.Actor{}
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return service.Actor{}
	}
	return service.Actor{ID: claims.UserID, Role: claims.Role}
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
