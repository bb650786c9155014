// Command normalize-statuses backfills the dual status of documents that only
// carry a legacy status. Unknown statuses abort the run without writing.
package main

import (
	"context"
	"flag"
	"log"

	"document-routing-api/config"
	"document-routing-api/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var dryRun bool
	flag.BoolVar(&dryRun, "dry-run", false, "resolve statuses without writing to the database")
	flag.Parse()

	config.InitDB()

	report, err := services.NewStatusNormalizer(config.DB).Run(context.Background(), dryRun)
	if err != nil {
		log.Fatalf("Status normalization failed: %v", err)
	}

	for _, fix := range report.Fixes {
		log.Printf("document %s: %s -> %s", fix.DocumentID, fix.Legacy, fix.State)
	}
	if dryRun {
		log.Printf("Dry run: %d of %d rows would be updated", len(report.Fixes), report.Scanned)
		return
	}
	log.Printf("Status normalization completed: %d rows updated", len(report.Fixes))
}
