package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"media-store/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sweeps chunks whose owning metadata record no longer exists. Orphans
// appear when a process dies between writing chunks and committing the
// record, or mid hard-delete after the chunks were removed but before
// the record was. Run with -dry-run first to see what would go.
func main() {
	dryRun := flag.Bool("dry-run", false, "report orphaned chunks without deleting them")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.DBName)
	files := db.Collection("media_files")
	chunks := db.Collection("media_chunks")

	fileIDs, err := chunks.Distinct(ctx, "file_id", bson.M{})
	if err != nil {
		log.Fatalf("Failed to list chunk file ids: %v", err)
	}
	fmt.Printf("Found chunks belonging to %d files\n", len(fileIDs))

	var orphans, removed int64
	for _, fileID := range fileIDs {
		n, err := files.CountDocuments(ctx, bson.M{"_id": fileID})
		if err != nil {
			log.Fatalf("Failed to check metadata record for %v: %v", fileID, err)
		}
		if n > 0 {
			continue
		}

		orphans++
		if *dryRun {
			fmt.Printf("Orphaned chunk set: file_id=%v\n", fileID)
			continue
		}

		res, err := chunks.DeleteMany(ctx, bson.M{"file_id": fileID})
		if err != nil {
			log.Printf("Failed to delete chunks for %v: %v\n", fileID, err)
			continue
		}
		removed += res.DeletedCount
		fmt.Printf("Removed %d chunks for file_id=%v\n", res.DeletedCount, fileID)
	}

	if *dryRun {
		fmt.Printf("Dry run complete: %d orphaned chunk sets found\n", orphans)
		return
	}
	fmt.Printf("Cleanup complete: %d orphaned chunk sets, %d chunks removed\n", orphans, removed)
}
