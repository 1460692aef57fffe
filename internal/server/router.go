package server

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"schoolsite/internal/delivery"
	"schoolsite/internal/derivative"
	"schoolsite/internal/domain/upload"
	"schoolsite/internal/media"
	"schoolsite/internal/middleware"
	jwtsvc "schoolsite/internal/pkg/jwt"
)

// Deps are the collaborators the router is built from.
type Deps struct {
	DB               *gorm.DB
	Layout           *media.Layout
	Generator        *derivative.Generator
	JWT              *jwtsvc.Service
	Production       bool
	PurgeDerivatives bool
}

// NewRouter wires the upload API and the asset delivery routes.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), middleware.ErrorLogger())

	delivery.RegisterRoutes(r, delivery.NewResolver(d.Layout, d.Production))

	uploadService := upload.NewService(upload.NewRepository(d.DB), d.Layout, d.Generator, d.PurgeDerivatives)
	uploadHandler := upload.NewHandler(uploadService)

	v1 := r.Group("/api/v1")
	protected := v1.Group("/")
	protected.Use(middleware.JWTAuth(d.JWT))
	{
		upload.RegisterRoutes(protected, uploadHandler)
	}

	return r
}

// Migrate creates the tables the router depends on.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&upload.Upload{})
}
