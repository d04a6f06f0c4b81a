package store

import (
	"fmt"
	"time"

	"github.com/pavelanni/classifier/internal/model"
)

// ExportCatalog builds the export document for every stored test.
// catalog.Parse accepts the document as is.
func (s *Store) ExportCatalog() (model.CatalogExport, error) {
	tests, err := s.ListTests()
	if err != nil {
		return model.CatalogExport{}, fmt.Errorf("list tests: %w", err)
	}
	if tests == nil {
		tests = []model.Test{}
	}
	return model.CatalogExport{
		ExportedAt: time.Now().UTC(),
		NumTests:   len(tests),
		Tests:      tests,
	}, nil
}
