package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/pavelanni/classifier/internal/catalog"
	"github.com/pavelanni/classifier/internal/model"
	"github.com/pavelanni/classifier/internal/store"
)

// loadCatalog imports the given files, seeds the sample catalog into an
// empty database and returns the stored catalog.
func loadCatalog(db *store.Store, paths []string) ([]model.Test, error) {
	if err := importCatalogs(db, paths); err != nil {
		return nil, err
	}

	count, err := db.TestCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		if _, err := saveTests(db, catalog.Sample()); err != nil {
			return nil, fmt.Errorf("seed sample catalog: %w", err)
		}
		slog.Info("seeded sample catalog")
	}

	return db.ListTests()
}

// importCatalogs imports each file unless its content hash matches the last
// import. Tests in a changed file replace stored tests with the same id.
func importCatalogs(db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}
		if storedHash == hash {
			slog.Info("catalog file unchanged, skipping", "path", path)
			continue
		}

		tests, err := catalog.Parse(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		replaced, err := saveTests(db, tests)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}

		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported catalog", "path", path, "tests", len(tests), "replaced", replaced)
	}
	return nil
}

// saveTests stores tests and returns how many replaced a stored test.
func saveTests(db *store.Store, tests []model.Test) (int, error) {
	replaced := 0
	for _, t := range tests {
		prev, err := db.GetTest(t.ID)
		if err != nil {
			return replaced, fmt.Errorf("load test %d: %w", t.ID, err)
		}
		if prev != nil {
			slog.Debug("replacing stored test", "test_id", t.ID, "old_name", prev.Name, "name", t.Name)
			replaced++
		}
		if err := db.SaveTest(t); err != nil {
			return replaced, fmt.Errorf("save test %d: %w", t.ID, err)
		}
	}
	return replaced, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
