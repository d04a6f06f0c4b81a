package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/classifier/internal/handler/assets"
	"github.com/pavelanni/classifier/internal/handler/views"
	appI18n "github.com/pavelanni/classifier/internal/i18n"
	"github.com/pavelanni/classifier/internal/llm"
	"github.com/pavelanni/classifier/internal/model"
	"github.com/pavelanni/classifier/internal/session"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	registry *session.Registry
	llm      llm.Commentator // nil disables results commentary
	config   model.AppConfig
}

// New creates a new Handler. c may be nil.
func New(reg *session.Registry, c llm.Commentator, cfg model.AppConfig) (*Handler, error) {
	reg.Observe(logTransition)
	return &Handler{registry: reg, llm: c, config: cfg}, nil
}

func logTransition(token string, ev session.Event) {
	slog.Debug("session transition",
		"session", token,
		"event", string(ev.Kind),
		"test_id", ev.TestID,
		"cursor", ev.Cursor,
		"version", ev.Version,
	)
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Handle("/assets/*", http.StripPrefix(h.path("/assets/"), h.assetServer()))

	r.Group(func(r chi.Router) {
		r.Use(h.csrfMiddleware)
		r.Use(h.sessionMiddleware)

		r.Get("/", h.handleIndex)
		r.Post("/tests/{testID}/start", h.handleStartTest)
		r.Get("/classify", h.handleClassifyPage)
		r.Post("/classify/label", h.handleLabel)
		r.Post("/classify/prev", h.handlePrev)
		r.Post("/classify/next", h.handleNext)
		r.Post("/classify/goto/{index}", h.handleGoto)
		r.Post("/classify/reset", h.handleReset)
		r.Post("/classify/submit", h.handleSubmit)
		r.Get("/results", h.handleResults)
		r.Get("/next-test", h.handleNextTest)
		r.Post("/next-test", h.handleNextTest)
		r.Get("/state.json", h.handleState)
		r.NotFound(h.handleNotFound)
	})
}

func (h *Handler) assetServer() http.Handler {
	if h.config.AssetsDir != "" {
		return http.FileServer(http.Dir(h.config.AssetsDir))
	}
	return http.FileServerFS(assets.FS)
}

// BasePathMiddleware stores the configured base path in the request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// path prefixes p with the configured base path.
func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, p string) {
	http.Redirect(w, r, h.path(p), http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func currentStore(r *http.Request) *session.Store {
	return session.FromContext(r.Context()).Store
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.IndexPage(h.registry.Tests()))
}

func (h *Handler) handleStartTest(w http.ResponseWriter, r *http.Request) {
	testID, err := strconv.Atoi(chi.URLParam(r, "testID"))
	if err != nil {
		http.Error(w, "invalid test ID", http.StatusBadRequest)
		return
	}
	currentStore(r).SelectTest(testID)
	h.redirect(w, r, "/classify")
}

// classifyData builds the classification page model. ok is false when there
// is nothing to classify and the caller should go back to the test list.
func classifyData(s *session.Store) (views.ClassifyData, bool) {
	st := s.Snapshot()
	test, ok := s.CurrentTest()
	if !ok || st.Cursor == nil || len(test.Images) == 0 {
		return views.ClassifyData{}, false
	}
	return views.ClassifyData{
		Test:       test,
		Cursor:     *st.Cursor,
		Selections: st.Selections,
		Labeled:    st.Labeled,
	}, true
}

func (h *Handler) renderClassify(w http.ResponseWriter, r *http.Request, status int, flash *views.Flash, confirmReset bool) {
	d, ok := classifyData(currentStore(r))
	if !ok {
		h.redirect(w, r, "/")
		return
	}
	d.Flash = flash
	d.ConfirmReset = confirmReset
	h.render(w, r, status, views.ClassifyPage(d))
}

func (h *Handler) handleClassifyPage(w http.ResponseWriter, r *http.Request) {
	var flash *views.Flash
	if r.URL.Query().Get("reset") == "done" {
		flash = &views.Flash{Kind: views.FlashSuccess, Message: appI18n.T(r.Context(), "ResetDone")}
	}
	h.renderClassify(w, r, http.StatusOK, flash, false)
}

func (h *Handler) handleLabel(w http.ResponseWriter, r *http.Request) {
	s := currentStore(r)
	test, ok := s.CurrentTest()
	if !ok {
		h.redirect(w, r, "/")
		return
	}
	imageID, err := strconv.Atoi(r.FormValue("imageID"))
	if err != nil {
		http.Error(w, "invalid image ID", http.StatusBadRequest)
		return
	}
	if test.ImageIndex(imageID) < 0 {
		slog.Warn("rejected image", "test_id", test.ID, "image_id", imageID)
		http.Error(w, "invalid image ID", http.StatusBadRequest)
		return
	}
	label := r.FormValue("label")
	if !test.HasLabel(label) {
		slog.Warn("rejected label", "test_id", test.ID, "image_id", imageID, "label", label)
		http.Error(w, appI18n.T(r.Context(), "InvalidLabel"), http.StatusBadRequest)
		return
	}
	s.SetLabel(imageID, label)
	h.redirect(w, r, "/classify")
}

func (h *Handler) handlePrev(w http.ResponseWriter, r *http.Request) {
	currentStore(r).Retreat()
	h.redirect(w, r, "/classify")
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	currentStore(r).Advance()
	h.redirect(w, r, "/classify")
}

func (h *Handler) handleGoto(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid image index", http.StatusBadRequest)
		return
	}
	currentStore(r).SetCursor(index)
	h.redirect(w, r, "/classify")
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("confirm") != "yes" {
		flash := &views.Flash{Kind: views.FlashWarning, Message: appI18n.T(r.Context(), "ConfirmReset")}
		h.renderClassify(w, r, http.StatusOK, flash, true)
		return
	}
	currentStore(r).ResetSelections()
	h.redirect(w, r, "/classify?reset=done")
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s := currentStore(r)
	if _, ok := s.CurrentTest(); !ok {
		h.redirect(w, r, "/")
		return
	}
	labeled, total := s.Progress()
	if labeled < total {
		msg := appI18n.Td(r.Context(), "Incomplete", map[string]any{"Labeled": labeled, "Total": total})
		h.renderClassify(w, r, http.StatusUnprocessableEntity, &views.Flash{Kind: views.FlashWarning, Message: msg}, false)
		return
	}
	s.Validate()
	h.redirect(w, r, "/results")
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	entry := session.FromContext(r.Context())
	s := entry.Store
	test, ok := s.CurrentTest()
	if !ok {
		h.redirect(w, r, "/")
		return
	}
	st := s.Snapshot()
	if len(st.Results) == 0 {
		h.redirect(w, r, "/classify")
		return
	}

	h.render(w, r, http.StatusOK, views.ResultsPage(views.ResultsData{
		Test:        test,
		Results:     st.Results,
		Summary:     session.Summarize(st.Results),
		Commentary:  h.commentary(r.Context(), entry, test, st),
		HasNextTest: st.HasNextTest,
	}))
}

// commentary returns the LLM comment for the current results, or "" when
// the client is disabled or fails.
func (h *Handler) commentary(ctx context.Context, entry *session.Entry, test model.Test, st session.State) string {
	if h.llm == nil {
		return ""
	}
	if text, ok := entry.Commentary(st.Version); ok {
		return text
	}
	if h.config.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.LLMTimeout)
		defer cancel()
	}
	text, err := h.llm.Commentary(ctx, test, st.Results, appI18n.Lang(ctx))
	if err != nil {
		slog.Warn("results commentary failed, using verdict", "test_id", test.ID, "error", err)
		return ""
	}
	entry.SetCommentary(st.Version, text)
	return text
}

func (h *Handler) handleNextTest(w http.ResponseWriter, r *http.Request) {
	s := currentStore(r)
	if !s.HasNextTest() {
		h.redirect(w, r, "/")
		return
	}
	s.AdvanceToNextTest()
	h.redirect(w, r, "/classify")
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(currentStore(r).Snapshot()); err != nil {
		slog.Error("encode state", "error", err)
	}
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	slog.Warn("page not found", "path", r.URL.Path)
	h.render(w, r, http.StatusNotFound, views.NotFoundPage())
}
