// Package views renders every page as a templ component.
package views

//go:generate templ generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/pavelanni/classifier/internal/model"
)

// FlashKind selects the styling of a notice shown above the page content.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashWarning FlashKind = "warning"
)

// Flash is a one-shot notice.
type Flash struct {
	Kind    FlashKind
	Message string
}

// ClassifyData is everything the classification page shows.
type ClassifyData struct {
	Test         model.Test
	Cursor       int
	Selections   map[int]string
	Labeled      int
	Flash        *Flash
	ConfirmReset bool
}

func (d ClassifyData) image() model.Image {
	return d.Test.Images[d.Cursor]
}

func (d ClassifyData) selected() (string, bool) {
	l, ok := d.Selections[d.image().ID]
	return l, ok
}

func (d ClassifyData) hasSelection() bool {
	_, ok := d.selected()
	return ok
}

func (d ClassifyData) isSelected(label string) bool {
	l, ok := d.selected()
	return ok && l == label
}

func (d ClassifyData) thumbClass(i int) string {
	class := "thumb"
	if i == d.Cursor {
		class += " current"
	}
	if _, ok := d.Selections[d.Test.Images[i].ID]; ok {
		class += " labeled"
	}
	return class
}

// ResultsData is everything the results page shows.
type ResultsData struct {
	Test        model.Test
	Results     []model.Result
	Summary     model.Summary
	Commentary  string // replaces the verdict text when non-empty
	HasNextTest bool
}

// VerdictMessageID maps a verdict band to its locale message.
func VerdictMessageID(v model.Verdict) string {
	switch v {
	case model.VerdictExcellent:
		return "VerdictExcellent"
	case model.VerdictVeryGood:
		return "VerdictVeryGood"
	case model.VerdictNotBad:
		return "VerdictNotBad"
	default:
		return "VerdictNeedsPractice"
	}
}

var tipMessageIDs = []string{"Tip1", "Tip2", "Tip3", "Tip4"}

// labelPreviewCount is how many labels a test card lists before eliding.
const labelPreviewCount = 3

func labelPreview(labels []string) string {
	if len(labels) <= labelPreviewCount {
		return strings.Join(labels, ", ")
	}
	return strings.Join(labels[:labelPreviewCount], ", ") + "..."
}

func padID(id int) string {
	return fmt.Sprintf("%02d", id)
}

// path prefixes p with the deployment base path.
func path(ctx context.Context, p string) string {
	return model.BasePathFromContext(ctx) + p
}

// formAction is the sanitized action URL of a form posting to p.
func formAction(ctx context.Context, p string) string {
	return string(templ.URL(path(ctx, p)))
}

// imageSrc resolves catalog image sources; site-absolute paths are served
// under the base path.
func imageSrc(ctx context.Context, src string) string {
	if strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "//") {
		src = path(ctx, src)
	}
	return string(templ.URL(src))
}
