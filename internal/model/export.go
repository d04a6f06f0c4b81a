package model

import "time"

// CatalogExport is the top-level JSON structure written by the export command.
type CatalogExport struct {
	ExportedAt time.Time `json:"exported_at"`
	NumTests   int       `json:"num_tests"`
	Tests      []Test    `json:"tests"`
}
