// Package i18n holds the UI translations and the per-request locale.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundle      *i18n.Bundle
	defaultLang = "en"
)

// locale is the request's language together with its localizer.
type locale struct {
	lang string
	loc  *i18n.Localizer
}

type ctxKey struct{}

// Init parses lang as the default language and loads every embedded
// locale file into a fresh bundle.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	files, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := path.Join("locales", f.Name())
		data, err := localeFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		mf, err := b.ParseMessageFileBytes(data, f.Name())
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		slog.Debug("loaded locale", "lang", mf.Tag.String(), "messages", len(mf.Messages))
	}

	bundle = b
	defaultLang = lang
	return nil
}

func newLocale(lang string) locale {
	return locale{lang: lang, loc: i18n.NewLocalizer(bundle, lang, defaultLang)}
}

// WithLanguage returns a context whose translations use lang, falling back
// to the default language for missing messages.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, newLocale(lang))
}

func fromCtx(ctx context.Context) locale {
	if l, ok := ctx.Value(ctxKey{}).(locale); ok {
		return l
	}
	return newLocale(defaultLang)
}

// Lang returns the language tag used for ctx.
func Lang(ctx context.Context) string {
	if l, ok := ctx.Value(ctxKey{}).(locale); ok {
		return l.lang
	}
	return defaultLang
}

// localize renders a message, returning its ID when the message is missing
// so that a gap in a locale file shows up on the page instead of failing it.
func localize(ctx context.Context, cfg *i18n.LocalizeConfig) string {
	s, err := fromCtx(ctx).loc.Localize(cfg)
	if err != nil {
		slog.Warn("missing translation", "id", cfg.MessageID, "error", err)
		return cfg.MessageID
	}
	return s
}

// T translates a message by ID.
func T(ctx context.Context, msgID string) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: msgID})
}

// Td translates a message by ID with template data.
func Td(ctx context.Context, msgID string, data map[string]any) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: msgID, TemplateData: data})
}

// Tp translates a pluralized message by ID.
func Tp(ctx context.Context, msgID string, count int) string {
	return Tpd(ctx, msgID, count, nil)
}

// Tpd translates a pluralized message by ID with extra template data.
//
// go-i18n picks the plural form from PluralCount but renders the chosen
// form only from TemplateData, so a message such as "{{.Count}} correct out
// of {{.Total}}" needs Count copied into the data as well. A "Count" key in
// data wins over count.
func Tpd(ctx context.Context, msgID string, count int, data map[string]any) string {
	td := make(map[string]any, len(data)+1)
	td["Count"] = count
	for k, v := range data {
		td[k] = v
	}
	return localize(ctx, &i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: td,
	})
}
