package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mentionlens/mentionlens/internal/config"
	"github.com/mentionlens/mentionlens/internal/core"
	"github.com/mentionlens/mentionlens/internal/core/engine"
	"github.com/mentionlens/mentionlens/internal/core/ingest"
	"github.com/mentionlens/mentionlens/internal/core/searcher"
	apperrors "github.com/mentionlens/mentionlens/internal/errors"
	"github.com/mentionlens/mentionlens/internal/observability"
	"github.com/mentionlens/mentionlens/internal/report"
)

const (
	defaultDelayMS = 250
	maxDelayMS     = 5000
)

// SearchHandler scans an uploaded connections export and responds with the
// aggregate, either as JSON or as the rendered HTML report.
type SearchHandler struct {
	Config  *config.Config
	Version string
}

type searchParams struct {
	includeHits bool
	maxHits     int
	delay       time.Duration
	maxContacts int
}

// Search handles POST /search: multipart CSV in, JSON aggregate out.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	params, err := parseParams(r)
	if err != nil {
		apperrors.RespondWithError(w, r, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	rep, err := h.scan(w, r, params)
	if err != nil {
		apperrors.RespondWithError(w, r, err)
		return
	}

	if !params.includeHits {
		for _, result := range rep.Results {
			result.Hits = nil
		}
	} else if params.maxHits > 0 {
		for _, result := range rep.Results {
			if len(result.Hits) > params.maxHits {
				result.Hits = result.Hits[:params.maxHits]
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(rep)
}

// Report handles POST /report: multipart CSV in, HTML document out.
func (h *SearchHandler) Report(w http.ResponseWriter, r *http.Request) {
	params, err := parseParams(r)
	if err != nil {
		apperrors.RespondWithError(w, r, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	rep, err := h.scan(w, r, params)
	if err != nil {
		apperrors.RespondWithError(w, r, err)
		return
	}

	renderer := &report.HTMLRenderer{
		DocumentBaseURL: h.Config.Report.DocumentBaseURL,
		LogoPath:        h.Config.Report.LogoPath,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := renderer.Render(w, rep); err != nil && observability.ServerLogger != nil {
		observability.ServerLogger.Warn("Report rendering aborted: " + err.Error())
	}
}

// scan parses the uploaded export and runs the sequential search loop. The
// request context bounds the whole run: a disconnected client cancels the
// in-flight search call.
func (h *SearchHandler) scan(w http.ResponseWriter, r *http.Request, params searchParams) (*core.Report, error) {
	maxUpload := h.Config.Server.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return nil, apperrors.NewInvalidInputError("CSV file is required")
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, apperrors.NewInvalidInputError("CSV file is required")
	}
	defer file.Close() // nolint:errcheck // read-only upload handle

	contacts, err := ingest.Parse(file)
	if err != nil || len(contacts) == 0 {
		return nil, apperrors.NewInvalidInputError("No connections found in CSV")
	}

	if params.maxContacts > 0 && len(contacts) > params.maxContacts {
		contacts = contacts[:params.maxContacts]
	}

	runner := &engine.Runner{
		Searcher: &searcher.Client{
			BaseURL:        h.Config.Search.BaseURL,
			Index:          h.Config.Search.Index,
			Timeout:        h.Config.Search.Timeout,
			MaxAttempts:    h.Config.Search.MaxAttempts,
			MaxDelay:       h.Config.Search.MaxDelay,
			RelaxOnSuccess: h.Config.Search.RelaxBackoff,
			InitialDelay:   params.delay,
			ToolVersion:    h.Version,
			Logger:         observability.ServerLogger,
		},
		InitialDelay: params.delay,
		Logger:       observability.ServerLogger,
	}

	rep, err := runner.Run(r.Context(), contacts)
	if err != nil {
		return nil, apperrors.NewInternalError("search run produced no results")
	}
	return rep, nil
}

func parseParams(r *http.Request) (searchParams, error) {
	params := searchParams{
		includeHits: true,
		delay:       defaultDelayMS * time.Millisecond,
	}

	query := r.URL.Query()

	if raw := query.Get("include_hits"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return params, fmt.Errorf("include_hits must be a boolean")
		}
		params.includeHits = value
	}

	if raw := query.Get("max_hits"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 1 {
			return params, fmt.Errorf("max_hits must be a positive integer")
		}
		params.maxHits = value
	}

	if raw := query.Get("delay_ms"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 || value > maxDelayMS {
			return params, fmt.Errorf("delay_ms must be between 0 and %d", maxDelayMS)
		}
		params.delay = time.Duration(value) * time.Millisecond
	}

	if raw := query.Get("max_contacts"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 1 {
			return params, fmt.Errorf("max_contacts must be a positive integer")
		}
		params.maxContacts = value
	}

	return params, nil
}
