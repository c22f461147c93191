package main

import (
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"locator-api/internal/cache"
	"locator-api/internal/config"
	"locator-api/internal/models"
	"locator-api/internal/repository"

	"github.com/lib/pq"
)

func main() {
	file := flag.String("file", "", "Path to the CSV file to import")
	flag.Parse()

	if *file == "" {
		fmt.Println("Error: --file flag is required")
		os.Exit(1)
	}

	fmt.Printf("Starting import from file: %s\n", *file)

	markers, err := parseCSV(*file)
	if err != nil {
		fmt.Printf("Error parsing CSV: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Parsed %d markers\n", len(markers))

	// Load config
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Connect to DB
	db, err := sql.Open("postgres", cfg.DBSource)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Ensure tables exist
	if _, err := db.Exec(repository.Schema); err != nil {
		fmt.Printf("Error creating tables: %v\n", err)
		os.Exit(1)
	}
	if _, err := db.Exec(cache.Schema); err != nil {
		fmt.Printf("Error creating cache table: %v\n", err)
		os.Exit(1)
	}

	// Insert markers
	if err := insertMarkers(db, markers); err != nil {
		fmt.Printf("Error inserting markers: %v\n", err)
		os.Exit(1)
	}

	// Verify data
	if err := verifyImport(db, len(markers)); err != nil {
		fmt.Printf("Error verifying import: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully imported %d markers\n", len(markers))
}

// parseCSV reads marker rows in the column order:
// id, title, description, street, city, region, postal_code, lat, lng,
// keywords, url, is_origin, enabled
func parseCSV(filePath string) ([]models.Marker, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var markers []models.Marker
	for {
		record, err := reader.Read()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		if len(record) < 13 {
			return nil, fmt.Errorf("invalid record length: %d, expected at least 13 columns", len(record))
		}

		lat, err := strconv.ParseFloat(record[7], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude: %s", record[7])
		}
		lng, err := strconv.ParseFloat(record[8], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude: %s", record[8])
		}

		marker := models.Marker{
			ID:          record[0],
			Title:       record[1],
			Description: record[2],
			Address: models.Address{
				Street:     record[3],
				City:       record[4],
				Region:     record[5],
				PostalCode: record[6],
			},
			Coordinate: models.Coordinate{Lat: lat, Lng: lng},
			Keywords:   record[9],
			URL:        record[10],
			IsOrigin:   record[11] == "1",
			Enabled:    record[12] != "0",
		}
		markers = append(markers, marker)
	}

	return markers, nil
}

func insertMarkers(db *sql.DB, markers []models.Marker) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(pq.CopyIn("locator_markers",
		"id", "title", "description", "street", "city", "region", "postal_code",
		"lat", "lng", "keywords", "url", "is_origin", "enabled"))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare copy: %w", err)
	}

	for _, m := range markers {
		_, err := stmt.Exec(
			m.ID, m.Title, m.Description,
			m.Address.Street, m.Address.City, m.Address.Region, m.Address.PostalCode,
			m.Coordinate.Lat, m.Coordinate.Lng,
			m.Keywords, m.URL, m.IsOrigin, m.Enabled,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to copy marker %s: %w", m.ID, err)
		}
	}

	if _, err := stmt.Exec(); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to close copy: %w", err)
	}
	return tx.Commit()
}

func verifyImport(db *sql.DB, expectedCount int) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM locator_markers").Scan(&count); err != nil {
		return fmt.Errorf("failed to count markers: %w", err)
	}
	if count < expectedCount {
		return fmt.Errorf("marker count mismatch: expected at least %d, got %d", expectedCount, count)
	}
	return nil
}
