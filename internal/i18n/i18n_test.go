package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	return WithLanguage(context.Background(), lang)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "Image Classification" {
		t.Errorf("T(AppTitle) = %q, want 'Image Classification'", got)
	}

	got = T(ctx, "StartTest")
	if got != "Start the test" {
		t.Errorf("T(StartTest) = %q, want 'Start the test'", got)
	}
}

func TestTranslateFrench(t *testing.T) {
	ctx := initLang(t, "fr")

	got := T(ctx, "AppTitle")
	if got != "Classification d'Images" {
		t.Errorf("T(AppTitle) = %q, want \"Classification d'Images\"", got)
	}

	got = T(ctx, "Submit")
	if got != "Validation" {
		t.Errorf("T(Submit) = %q, want 'Validation'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "ImagesToClassify", 1)
	if got1 != "1 image to classify" {
		t.Errorf("Tp(ImagesToClassify, 1) = %q, want '1 image to classify'", got1)
	}

	got5 := Tp(ctx, "ImagesToClassify", 5)
	if got5 != "5 images to classify" {
		t.Errorf("Tp(ImagesToClassify, 5) = %q, want '5 images to classify'", got5)
	}
}

func TestPluralWithDataFrench(t *testing.T) {
	ctx := initLang(t, "fr")

	tests := []struct {
		count int
		want  string
	}{
		{0, "0 correct sur 5"},
		{1, "1 correct sur 5"},
		{3, "3 corrects sur 5"},
	}
	for _, tt := range tests {
		got := Tpd(ctx, "CorrectOutOf", tt.count, map[string]any{"Total": 5})
		if got != tt.want {
			t.Errorf("Tpd(CorrectOutOf, %d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "ImageNofM", map[string]any{"N": 2, "Total": 5})
	if got != "Image 2 of 5" {
		t.Errorf("Td(ImageNofM) = %q, want 'Image 2 of 5'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestLang(t *testing.T) {
	ctx := initLang(t, "fr")
	if got := Lang(ctx); got != "fr" {
		t.Errorf("Lang = %q, want fr", got)
	}
	if got := Lang(context.Background()); got != "fr" {
		t.Errorf("Lang(empty ctx) = %q, want the default fr", got)
	}
	if got := Lang(WithLanguage(ctx, "en")); got != "en" {
		t.Errorf("Lang = %q, want en", got)
	}
}

func TestFallbackToDefaultLanguage(t *testing.T) {
	initLang(t, "fr")
	ctx := WithLanguage(context.Background(), "de")
	if got := T(ctx, "Submit"); got != "Validation" {
		t.Errorf("T(Submit) in de = %q, want the French default", got)
	}
}

func TestPluralCountInTemplateData(t *testing.T) {
	ctx := initLang(t, "en")
	if got := Tpd(ctx, "CorrectOutOf", 2, map[string]any{"Total": 4}); got != "2 correct out of 4" {
		t.Errorf("Tpd(CorrectOutOf, 2) = %q", got)
	}
	if got := Tpd(ctx, "CorrectOutOf", 2, map[string]any{"Count": 3, "Total": 4}); got != "3 correct out of 4" {
		t.Errorf("explicit Count should win, got %q", got)
	}
}

func TestMiddleware(t *testing.T) {
	initLang(t, "en")
	var got string
	h := Middleware("fr")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Lang(r.Context()) + ": " + T(r.Context(), "Submit")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != "fr: Validation" {
		t.Errorf("middleware locale = %q, want %q", got, "fr: Validation")
	}
}
