// Package catalog parses and checks the JSON test catalog.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pavelanni/classifier/internal/model"
)

//go:embed sample.json
var sampleJSON []byte

// ErrInvalidTest wraps every validation failure.
var ErrInvalidTest = errors.New("invalid test")

// Parse decodes a catalog file and validates every test in it. The file is
// either a bare array of tests or a document written by the export command.
func Parse(data []byte) ([]model.Test, error) {
	var tests []model.Test
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		var export model.CatalogExport
		if err := json.Unmarshal(data, &export); err != nil {
			return nil, fmt.Errorf("decode catalog export: %w", err)
		}
		tests = export.Tests
	} else if err := json.Unmarshal(data, &tests); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := ValidateAll(tests); err != nil {
		return nil, err
	}
	return tests, nil
}

// Sample returns the built-in catalog used when no file is configured.
func Sample() []model.Test {
	tests, err := Parse(sampleJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded sample catalog: %v", err))
	}
	return tests
}

// ValidateAll validates each test and rejects duplicate test ids.
func ValidateAll(tests []model.Test) error {
	var errs []error
	seen := make(map[int]bool, len(tests))
	for _, t := range tests {
		if seen[t.ID] {
			errs = append(errs, fmt.Errorf("%w: duplicate test id %d", ErrInvalidTest, t.ID))
		}
		seen[t.ID] = true
		if err := Validate(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate checks that a test is internally consistent: every image has a
// correct answer and every answer is one of the labels.
func Validate(t model.Test) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w %d: %s", ErrInvalidTest, t.ID, fmt.Sprintf(format, args...)))
	}

	if t.Name == "" {
		fail("empty name")
	}
	if len(t.Images) == 0 {
		fail("no images")
	}
	if len(t.Labels) == 0 {
		fail("no labels")
	}

	labels := make(map[string]bool, len(t.Labels))
	for _, l := range t.Labels {
		if labels[l] {
			fail("duplicate label %q", l)
		}
		labels[l] = true
	}

	images := make(map[int]bool, len(t.Images))
	for _, img := range t.Images {
		if images[img.ID] {
			fail("duplicate image id %d", img.ID)
			continue
		}
		images[img.ID] = true
		answer, ok := t.CorrectAnswers[img.ID]
		switch {
		case !ok:
			fail("image %d has no correct answer", img.ID)
		case !labels[answer]:
			fail("answer %q for image %d is not a label", answer, img.ID)
		}
	}
	for id := range t.CorrectAnswers {
		if !images[id] {
			fail("answer for unknown image %d", id)
		}
	}

	return errors.Join(errs...)
}
