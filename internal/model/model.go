package model

import (
	"context"
	"time"
)

// Image is one picture to classify within a test.
type Image struct {
	ID  int    `json:"id"`
	Src string `json:"src"`
}

// Test is one classification exercise: an ordered set of images, the label
// vocabulary offered for them and the ground-truth label per image.
type Test struct {
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	Images         []Image        `json:"images"`
	Labels         []string       `json:"labels"`
	CorrectAnswers map[int]string `json:"correct_answers"`
}

// ImageIndex returns the position of the image with the given id, or -1.
func (t Test) ImageIndex(imageID int) int {
	for i, img := range t.Images {
		if img.ID == imageID {
			return i
		}
	}
	return -1
}

// HasLabel reports whether label is one of the test's choices.
func (t Test) HasLabel(label string) bool {
	for _, l := range t.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Result is the outcome of validating one selection.
type Result struct {
	ImageID       int    `json:"image_id"`
	SelectedLabel string `json:"selected_label"`
	CorrectLabel  string `json:"correct_label"`
	IsCorrect     bool   `json:"is_correct"`
}

// Verdict is the qualitative band of a score.
type Verdict string

const (
	VerdictExcellent     Verdict = "excellent"
	VerdictVeryGood      Verdict = "very_good"
	VerdictNotBad        Verdict = "not_bad"
	VerdictNeedsPractice Verdict = "needs_practice"
)

// Summary aggregates a set of results for the results page.
type Summary struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage int     `json:"percentage"`
	Verdict    Verdict `json:"verdict"`
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	Lang          string
	BasePath      string        // URL prefix for sub-path deployments (e.g. "/fr")
	SecureCookies bool          // Set Secure flag on cookies (disable for local dev)
	SessionTTL    time.Duration // idle time after which a browser session is dropped
	LLMTimeout    time.Duration
	AssetsDir     string // serves /assets/ from disk instead of the built-in images
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}
