package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/japaniel/cards/pkg/db"
)

// Store is the part of db.Store the API uses.
type Store interface {
	Save(ctx context.Context, w db.NewWord) (db.Word, error)
	SaveAll(ctx context.Context, words []db.NewWord) ([]db.Word, error)
	FindAllByText(ctx context.Context, text string) ([]db.Word, error)
	FindByID(ctx context.Context, id int64) (db.Word, bool, error)
	FindByWord(ctx context.Context, word db.Word) ([]db.TranslatedWord, error)
	TranslateAll(ctx context.Context, from db.Word, tos []db.Word) ([]db.Translation, error)
}

// Handler holds API route handlers.
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

type wordsResponse struct {
	Words []db.Word `json:"words"`
}

type translationsResponse struct {
	Word         db.Word   `json:"word"`
	Translations []db.Word `json:"translations"`
}

type translateRequest struct {
	From int64   `json:"from"`
	To   []int64 `json:"to"`
}

type translateResponse struct {
	Translations []db.Translation `json:"translations"`
}

// fail maps err to a status code and writes it. Unexpected errors are logged
// and reported without detail.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, db.ErrInvalidWord), errors.Is(err, db.ErrUnsavedWord):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, db.ErrConstraintViolation):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("request canceled"))
	default:
		h.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func wordID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid word id %q", raw)
	}
	return id, nil
}

// SaveWord handles POST /words. The word is upserted on (text, language).
func (h *Handler) SaveWord(w http.ResponseWriter, r *http.Request) {
	var nw db.NewWord
	if err := decodeJSON(w, r, &nw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	word, err := h.store.Save(r.Context(), nw)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, word)
}

// SaveWords handles POST /words/batch. Every word must be new; one existing
// (text, language) pair rejects the whole batch with 409.
func (h *Handler) SaveWords(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Words []db.NewWord `json:"words"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	words, err := h.store.SaveAll(r.Context(), req.Words)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wordsResponse{Words: words})
}

// ListWords handles GET /words?text=.
func (h *Handler) ListWords(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("text query parameter is required"))
		return
	}
	words, err := h.store.FindAllByText(r.Context(), text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if words == nil {
		words = []db.Word{}
	}
	writeJSON(w, http.StatusOK, wordsResponse{Words: words})
}

// GetWord handles GET /words/{id}.
func (h *Handler) GetWord(w http.ResponseWriter, r *http.Request) {
	word, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, word)
}

// GetTranslations handles GET /words/{id}/translations. Only direct
// translations are listed.
func (h *Handler) GetTranslations(w http.ResponseWriter, r *http.Request) {
	word, ok := h.lookup(w, r)
	if !ok {
		return
	}
	linked, err := h.store.FindByWord(r.Context(), word)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, translationsResponse{Word: word, Translations: db.ToWords(linked)})
}

// lookup resolves the {id} parameter, writing the error response itself
// when it cannot.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (db.Word, bool) {
	id, err := wordID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return db.Word{}, false
	}
	word, found, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return db.Word{}, false
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody(fmt.Sprintf("word %d not found", id)))
		return db.Word{}, false
	}
	return word, true
}

// Translate handles POST /translations with {"from": id, "to": [ids]}.
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if req.From <= 0 || len(req.To) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("from and at least one to id are required"))
		return
	}

	ids := append([]int64{req.From}, req.To...)
	words := make([]db.Word, 0, len(ids))
	for _, id := range ids {
		word, found, err := h.store.FindByID(r.Context(), id)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if !found {
			writeJSON(w, http.StatusNotFound, errorBody(fmt.Sprintf("word %d not found", id)))
			return
		}
		words = append(words, word)
	}

	edges, err := h.store.TranslateAll(r.Context(), words[0], words[1:])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, translateResponse{Translations: edges})
}
