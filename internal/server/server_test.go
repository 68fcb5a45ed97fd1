package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mentionlens/mentionlens/internal/config"
	"github.com/mentionlens/mentionlens/internal/core"
)

const testToken = "test-token"

const sampleCSV = "First Name,Last Name,URL,Email Address,Company,Position,Connected On\n" +
	"Jane,Doe,,,Acme Corp,Engineer,01 Jan 2024\n" +
	"John,Smith,,,Globex,Manager,02 Feb 2024\n"

// stubSearchBackend answers the upstream search API shape with canned totals
// keyed by the quoted name in q.
func stubSearchBackend(t *testing.T, totals map[string]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.Trim(r.URL.Query().Get("q"), `"`)
		total := totals[name]
		hits := ""
		if total > 0 {
			hits = fmt.Sprintf(`{"content_preview":"...%s...","file_path":"/data/dataset/doc.pdf"}`, name)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"success":true,"data":{"totalHits":%d,"hits":[%s]}}`, total, hits)
	}))
}

func testConfig(searchURL string) *config.Config {
	cfg := config.Default()
	cfg.Search.BaseURL = searchURL
	cfg.Search.InitialDelay = time.Millisecond
	cfg.Server.BearerToken = testToken
	cfg.Server.AllowedOrigins = []string{"https://app.example.com"}
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	srv, err := New(cfg, "test")
	require.NoError(t, err)
	return srv
}

func multipartCSV(t *testing.T, csv string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "Connections.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestNewRequiresBearerToken(t *testing.T) {
	cfg := config.Default()
	_, err := New(cfg, "test")
	require.Error(t, err)
}

func TestHealthEndpointIsOpen(t *testing.T) {
	srv := newTestServer(t, testConfig("http://unused"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "test", body["version"])
}

func TestVersionEndpointIsOpen(t *testing.T) {
	srv := newTestServer(t, testConfig("http://unused"))

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchRequiresBearerToken(t *testing.T) {
	srv := newTestServer(t, testConfig("http://unused"))

	body, contentType := multipartCSV(t, sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/search", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestSearchRejectsWrongToken(t *testing.T) {
	srv := newTestServer(t, testConfig("http://unused"))

	body, contentType := multipartCSV(t, sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/search", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchHappyPath(t *testing.T) {
	backend := stubSearchBackend(t, map[string]int{"Jane Doe": 7, "John Smith": 0})
	defer backend.Close()

	srv := newTestServer(t, testConfig(backend.URL))

	body, contentType := multipartCSV(t, sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/search?delay_ms=0", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rep core.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.Len(t, rep.Results, 2)
	require.Equal(t, "Jane Doe", rep.Results[0].Name)
	require.Equal(t, 7, rep.Results[0].TotalMentions)
	require.Len(t, rep.Results[0].Hits, 1)
	require.Equal(t, 2, rep.Summary.TotalSearched)
	require.Equal(t, 1, rep.Summary.WithMentions)
}

func TestSearchStripsHitsWhenExcluded(t *testing.T) {
	backend := stubSearchBackend(t, map[string]int{"Jane Doe": 7})
	defer backend.Close()

	srv := newTestServer(t, testConfig(backend.URL))

	body, contentType := multipartCSV(t, sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/search?delay_ms=0&include_hits=false", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rep core.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.Empty(t, rep.Results[0].Hits)
}

func TestSearchValidatesDelayBounds(t *testing.T) {
	srv := newTestServer(t, testConfig("http://unused"))

	body, contentType := multipartCSV(t, sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/search?delay_ms=6000", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestSearchRejectsMissingFile(t *testing.T) {
	srv := newTestServer(t, testConfig("http://unused"))

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchRejectsEmptyCSV(t *testing.T) {
	srv := newTestServer(t, testConfig("http://unused"))

	body, contentType := multipartCSV(t, "just,random,data\n")
	req := httptest.NewRequest(http.MethodPost, "/search", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "No connections found in CSV")
}

func TestReportReturnsHTML(t *testing.T) {
	backend := stubSearchBackend(t, map[string]int{"Jane Doe": 3})
	defer backend.Close()

	srv := newTestServer(t, testConfig(backend.URL))

	body, contentType := multipartCSV(t, sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/report?delay_ms=0", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), "Jane Doe")
	require.NotContains(t, rec.Body.String(), "John Smith")
}

func TestMaxContactsLimitsRun(t *testing.T) {
	backend := stubSearchBackend(t, map[string]int{"Jane Doe": 1, "John Smith": 1})
	defer backend.Close()

	srv := newTestServer(t, testConfig(backend.URL))

	body, contentType := multipartCSV(t, sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/search?delay_ms=0&max_contacts=1", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rep core.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.Len(t, rep.Results, 1)
	require.Equal(t, "Jane Doe", rep.Results[0].Name)
}

func TestNotFoundReturnsEnvelope(t *testing.T) {
	srv := newTestServer(t, testConfig("http://unused"))

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, testConfig("http://unused"))

	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	srv := newTestServer(t, testConfig("http://unused"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
