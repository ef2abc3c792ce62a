package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"review_analyzer/internal/domain"
)

const (
	msgInvalidLocationFilter = "Not Valid location"
	msgInvalidDate           = "Invalid date format, expected YYYY-MM-DD"
	msgMissingField          = "Missing ReviewBody or Location parameter"
	msgInvalidLocation       = "Invalid Location parameter"
	msgMalformedBody         = "Malformed request body"
	msgBodyTooLarge          = "Request body too large"
	msgInternal              = "Internal Server Error"
)

type ReviewQuerier interface {
	Query(ctx context.Context, f domain.ReviewFilter) ([]domain.AnnotatedReview, error)
}

type ReviewSubmitter interface {
	Submit(ctx context.Context, in domain.NewReview) (domain.Review, error)
}

type Handlers struct {
	Q ReviewQuerier
	S ReviewSubmitter
	// MaxBodyBytes caps POST bodies; 0 means 1 MiB.
	MaxBodyBytes int64
	// SubmitLimiter throttles POST; nil disables throttling.
	SubmitLimiter *IPRateLimiter
}

func (s *Server) MountHandlers(h *Handlers) {
	var submitMW []func(http.Handler) http.Handler
	if h.SubmitLimiter != nil {
		submitMW = append(submitMW, h.SubmitLimiter.Middleware)
	}
	s.mux.Get("/", h.listReviews)
	s.mux.With(submitMW...).Post("/", h.submitReview)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(msg)))
	w.WriteHeader(status)
	if _, err := io.WriteString(w, msg); err != nil {
		log.Error().Err(err).Msg("write text response failed")
	}
}

// writeJSON marshals once so Content-Length is exact.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal response body")
		writeText(w, http.StatusInternalServerError, msgInternal)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.ReviewFilter{
		Location:  firstNonEmpty(q["location"]),
		StartDate: firstNonEmpty(q["start_date"]),
		EndDate:   firstNonEmpty(q["end_date"]),
	}
	out, err := h.Q.Query(r.Context(), f)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, out)
	case errors.Is(err, domain.ErrInvalidLocation):
		writeText(w, http.StatusBadRequest, msgInvalidLocationFilter)
	case errors.Is(err, domain.ErrInvalidDateFormat):
		writeText(w, http.StatusBadRequest, msgInvalidDate)
	default:
		log.Error().Err(err).Interface("filter", f).Msg("query reviews failed")
		writeText(w, http.StatusInternalServerError, msgInternal)
	}
}

func (h *Handlers) submitReview(w http.ResponseWriter, r *http.Request) {
	form, err := h.readForm(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		log.Debug().Err(err).Msg("malformed submission body")
		writeText(w, http.StatusBadRequest, msgMalformedBody)
		return
	}

	created, err := h.S.Submit(r.Context(), domain.NewReview{
		Body:     firstNonEmpty(form["ReviewBody"]),
		Location: firstNonEmpty(form["Location"]),
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, created)
	case errors.Is(err, domain.ErrMissingField):
		writeText(w, http.StatusBadRequest, msgMissingField)
	case errors.Is(err, domain.ErrInvalidLocation):
		writeText(w, http.StatusBadRequest, msgInvalidLocation)
	default:
		log.Error().Err(err).Msg("submit review failed")
		writeText(w, http.StatusInternalServerError, msgInternal)
	}
}

// readForm decodes a URL-encoded body regardless of Content-Type.
// Only Content-Length bytes are read; an unknown length reads nothing.
func (h *Handlers) readForm(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	if r.ContentLength <= 0 {
		return url.Values{}, nil
	}
	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(body) {
		return nil, domain.ErrMalformedBody
	}
	vals, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, errors.Join(domain.ErrMalformedBody, err)
	}
	return vals, nil
}

// firstNonEmpty drops blank values the way form decoders without
// keep-blank semantics do.
func firstNonEmpty(vs []string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
