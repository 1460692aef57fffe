package upload

import (
	"github.com/gin-gonic/gin"

	"schoolsite/internal/media"
	"schoolsite/internal/middleware"
)

// RegisterRoutes registers one upload route per category under the
// authenticated group, each gated by the roles of its policy. Ledger routes
// are admin only.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	uploads := r.Group("/admin/uploads")
	for _, c := range media.UploadCategories() {
		policy := media.MustLookup(c)
		uploads.POST("/"+string(c), middleware.RequireRole(policy.Roles...), h.UploadTo(c))
	}

	ledger := uploads.Group("", middleware.AdminOnly())
	{
		ledger.GET("", h.List)
		ledger.GET("/:id", h.GetByID)
		ledger.DELETE("/:id", h.Delete)
	}
}
