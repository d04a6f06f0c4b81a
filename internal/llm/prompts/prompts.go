package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/classifier/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

var systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)

const maxFieldRunes = 200

var languageNames = map[string]string{
	"en": "English",
	"fr": "French",
}

var (
	loadOnce           sync.Once
	loadErr            error
	commentaryTemplate *template.Template
)

// CommentaryItem is one classified image as presented to the model.
type CommentaryItem struct {
	ImageID   int
	Selected  string
	Correct   string
	IsCorrect bool
}

// CommentaryData holds template data for the results commentary prompt.
type CommentaryData struct {
	TestName   string
	Language   string
	Correct    int
	Total      int
	Percentage int
	Items      []CommentaryItem
}

// load parses the embedded templates once.
func load() error {
	loadOnce.Do(func() {
		content, err := templateFS.ReadFile("templates/commentary.txt")
		if err != nil {
			loadErr = errors.New("failed to read prompt file: " + err.Error())
			return
		}
		commentaryTemplate, err = template.New("commentary").Parse(string(content))
		if err != nil {
			loadErr = errors.New("failed to parse prompt template: " + err.Error())
		}
	})
	return loadErr
}

// LanguageName returns the English name of a UI language tag, defaulting to English.
func LanguageName(lang string) string {
	if name, ok := languageNames[strings.ToLower(lang)]; ok {
		return name
	}
	return "English"
}

// BuildCommentaryPrompt renders the commentary prompt for a validated test.
func BuildCommentaryPrompt(test model.Test, results []model.Result, summary model.Summary, lang string) (string, error) {
	if err := load(); err != nil {
		return "", fmt.Errorf("templates load failed: %w", err)
	}

	data := CommentaryData{
		TestName:   sanitize(test.Name),
		Language:   LanguageName(lang),
		Correct:    summary.Correct,
		Total:      summary.Total,
		Percentage: summary.Percentage,
	}
	for _, r := range results {
		data.Items = append(data.Items, CommentaryItem{
			ImageID:   r.ImageID,
			Selected:  sanitize(r.SelectedLabel),
			Correct:   sanitize(r.CorrectLabel),
			IsCorrect: r.IsCorrect,
		})
	}

	var buf bytes.Buffer
	if err := commentaryTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitize strips delimiter tags and caps the length of catalog-provided text.
func sanitize(s string) string {
	s = systemInstructionsRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxFieldRunes {
		s = string([]rune(s)[:maxFieldRunes]) + "..."
	}
	return s
}
