package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/nsetools/project-scheduler/internal/config"
	"github.com/nsetools/project-scheduler/internal/db"
	"github.com/nsetools/project-scheduler/internal/models"
	"github.com/nsetools/project-scheduler/internal/repo"
)

// Seeds the projects table with the demo data the dashboard expects.
// Clears existing projects first to prevent duplicates.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	database, err := db.Connect(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.Run(db.URL(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	if _, err := database.ExecContext(ctx, `DELETE FROM projects`); err != nil {
		log.Fatalf("Failed to clear projects: %v", err)
	}
	log.Println("Cleared existing projects.")

	deadline := time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)
	samples := []models.Project{
		{
			Name:            "BECO TYSONS",
			ProjectNumber:   "#21000",
			Manager:         "Gary Golden",
			Status:          "Active",
			Progress:        65,
			Deadline:        &deadline,
			TotalManHours:   2000,
			DesiredManpower: 6,
			Efficiency:      0.60,
		},
		{
			Name:            "MAX9",
			ProjectNumber:   "#21007",
			Manager:         "John Dennis",
			Status:          "Active",
			Progress:        55,
			Deadline:        &deadline,
			TotalManHours:   1500,
			DesiredManpower: 4,
			Efficiency:      0.75,
		},
	}

	projects := repo.NewProjectRepo(database)
	for _, p := range samples {
		created, err := projects.Create(ctx, p)
		if err != nil {
			log.Fatalf("Failed to seed project %q: %v", p.Name, err)
		}
		log.Printf("Seeded project %q (id=%d)", created.Name, created.ID)
	}

	log.Println("Sample projects have been added.")
}
