package main

import (
	"log"

	"github.com/joho/godotenv"

	"schoolsite/internal/config"
	"schoolsite/internal/database"
	"schoolsite/internal/derivative"
	"schoolsite/internal/media"
	jwtsvc "schoolsite/internal/pkg/jwt"
	"schoolsite/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL, !cfg.Production)
	if err != nil {
		log.Fatal(err)
	}
	if err := server.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	layout, err := media.NewLayout(cfg.UploadsDir, cfg.AssetsDir)
	if err != nil {
		log.Fatal(err)
	}
	if err := layout.EnsureDirs(); err != nil {
		log.Fatal(err)
	}

	r := server.NewRouter(server.Deps{
		DB:               db,
		Layout:           layout,
		Generator:        derivative.NewGenerator(cfg.TranscodeWorkers),
		JWT:              jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL),
		Production:       cfg.Production,
		PurgeDerivatives: cfg.PurgeDerivatives,
	})

	log.Printf("api listening env=%s port=%s uploads=%s assets=%s", cfg.AppEnv, cfg.Port, layout.UploadsRoot(), layout.AssetsRoot())
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
