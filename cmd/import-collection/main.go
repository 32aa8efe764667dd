// import-collection merges a collection export into the configured store.
//
// Usage: import-collection -file=<export.json> [-db=<path>] [-replace] [-dry-run]
//
// Accepted inputs:
//  1. A JSON array of collection entries
//  2. An object with an "entries" array (the /api/collection/import body)
//  3. A key-value dump from the mobile app, e.g. {"@card_collection": "<json>", "@app_settings": "<json>"}
//
// Entries are merged by card id; quantities add up. With -replace the stored
// collection is discarded first.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/codyseavey/card-grader/internal/collection"
	"github.com/codyseavey/card-grader/internal/config"
	"github.com/codyseavey/card-grader/internal/database"
	"github.com/codyseavey/card-grader/internal/models"
	"github.com/codyseavey/card-grader/internal/storage"
)

// export is the parsed content of an import file. Settings is nil when the
// file carries none.
type export struct {
	Entries  []models.CollectionEntry
	Settings *models.Settings
}

func main() {
	dbPath := flag.String("db", "", "Path to SQLite database (defaults to DB_PATH)")
	file := flag.String("file", "", "Path to the export file (required)")
	replace := flag.Bool("replace", false, "Discard the stored collection before importing")
	dryRun := flag.Bool("dry-run", false, "Preview the result without saving")
	flag.Parse()

	if *file == "" {
		fmt.Println("Usage: import-collection -file=<export.json> [options]")
		fmt.Println("")
		fmt.Println("Options:")
		fmt.Println("  -file     Path to the export file (required)")
		fmt.Println("  -db       Path to SQLite database (defaults to DB_PATH)")
		fmt.Println("  -replace  Discard the stored collection before importing")
		fmt.Println("  -dry-run  Preview the result without saving")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	exp, err := parseExport(data)
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", *file, err)
	}
	log.Printf("Read %d entries from %s", len(exp.Entries), *file)

	ctx := context.Background()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	kv, err := storage.NewKV(ctx, cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	bridge := storage.NewBridge(kv)

	current := collection.NewState(nil)
	if !*replace {
		current = collection.NewState(bridge.Load(ctx))
	}
	before := current.UniqueCount()
	merged := current.Import(exp.Entries)

	fmt.Printf("\nCollection: %d -> %d unique cards, %d total, value $%s\n",
		before, merged.UniqueCount(), merged.TotalCount(), merged.TotalValue().StringFixed(2))

	if *dryRun {
		fmt.Println("Dry run: nothing saved")
		return
	}

	if err := bridge.Save(ctx, merged.Entries()); err != nil {
		log.Fatalf("Failed to save collection: %v", err)
	}
	if exp.Settings != nil {
		if err := bridge.SaveSettings(ctx, *exp.Settings); err != nil {
			log.Fatalf("Failed to save settings: %v", err)
		}
		fmt.Println("Settings imported")
	}
	fmt.Println("Import complete")
}

func parseExport(data []byte) (export, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return export{}, errors.New("empty file")
	}

	if data[0] == '[' {
		var entries []models.CollectionEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return export{}, fmt.Errorf("decode entries: %w", err)
		}
		return export{Entries: entries}, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return export{}, fmt.Errorf("decode export: %w", err)
	}

	if raw, ok := doc["entries"]; ok {
		var entries []models.CollectionEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return export{}, fmt.Errorf("decode entries: %w", err)
		}
		return export{Entries: entries}, nil
	}

	raw, ok := doc[storage.CollectionKey]
	if !ok {
		return export{}, fmt.Errorf("no entries or %s key found", storage.CollectionKey)
	}

	var exp export
	if err := decodeStoredValue(raw, &exp.Entries); err != nil {
		return export{}, fmt.Errorf("decode %s: %w", storage.CollectionKey, err)
	}

	if rawSettings, ok := doc[storage.SettingsKey]; ok {
		settings := models.DefaultSettings()
		if err := decodeStoredValue(rawSettings, &settings); err != nil {
			log.Printf("Ignoring unreadable %s: %v", storage.SettingsKey, err)
		} else {
			exp.Settings = &settings
		}
	}
	return exp, nil
}

// decodeStoredValue accepts a value stored either as a JSON string (the
// key-value store's native form) or inline as JSON.
func decodeStoredValue(raw json.RawMessage, v any) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return json.Unmarshal([]byte(s), v)
	}
	return json.Unmarshal(raw, v)
}
