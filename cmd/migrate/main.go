// Command migrate applies the database schema. Connect skips automigration
// in production, so deploys run this explicitly before starting the server.
package main

import (
	"flag"
	"fmt"
	"log"

	"chirp/internal/config"
	"chirp/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dryRun := flag.Bool("dry-run", false, "Print the managed models without touching the database")
	flag.Parse()

	models := database.PersistentModels()
	if *dryRun {
		for _, m := range models {
			log.Printf("managed model: %T", m)
		}
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Printf("schema applied for %d models", len(models))
	return nil
}
