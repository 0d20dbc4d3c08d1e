package main

import (
	"flag"
	"log"

	"github.com/tastebook/backend/config"
	"github.com/tastebook/backend/internal/database"
)

func main() {
	drop := flag.Bool("drop", false, "Drop every application table instead of migrating")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if *drop {
		if err := database.DropAll(db); err != nil {
			log.Fatalf("drop failed: %v", err)
		}
		log.Println("all tables dropped")
		return
	}

	if err := database.EnsureSchema(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("schema is up to date")
}
