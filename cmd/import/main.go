package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/tastebook/backend/config"
	"github.com/tastebook/backend/internal/database"
	"github.com/tastebook/backend/internal/service"
)

// importFile is the on-disk shape of a bulk load: three optional record
// lists, matching the admin import endpoint's body.
type importFile struct {
	Users   []service.ImportUser   `json:"users"`
	Recipes []service.ImportRecipe `json:"recipes"`
	Reviews []service.ImportReview `json:"reviews"`
}

func main() {
	path := flag.String("file", "", "Path to the JSON dataset to import")
	flag.Parse()
	if *path == "" {
		log.Fatal("usage: import -file <dataset.json>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.EnsureSchema(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("failed to read %s: %v", *path, err)
	}
	var payload importFile
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Fatalf("failed to parse %s: %v", *path, err)
	}

	if err := service.NewImportService(db).Import(payload.Users, payload.Recipes, payload.Reviews); err != nil {
		log.Fatalf("import failed: %v", err)
	}
}
