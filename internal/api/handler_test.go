package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echoloop/internal/domain"
	"echoloop/internal/hub"
)

type stubIngester struct {
	results []domain.MessageWithSummary
	err     error
}

func (s *stubIngester) Ingest(context.Context) ([]domain.MessageWithSummary, error) {
	return s.results, s.err
}

type stubSummaryReader struct {
	items   []domain.MessageWithSummary
	listErr error
	seenErr error
	seenIDs []int64
}

func (s *stubSummaryReader) ListWithMessages(_ context.Context, offset, limit int) ([]domain.MessageWithSummary, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if offset >= len(s.items) {
		return []domain.MessageWithSummary{}, nil
	}
	end := offset + limit
	if end > len(s.items) {
		end = len(s.items)
	}
	return s.items[offset:end], nil
}

func (s *stubSummaryReader) MarkSeen(_ context.Context, summaryID int64) error {
	if s.seenErr != nil {
		return s.seenErr
	}
	s.seenIDs = append(s.seenIDs, summaryID)
	return nil
}

func newTestRouter(t *testing.T, ingester Ingester, summaries SummaryReader) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRouter(NewHandler(ingester, summaries, logger), hub.New(logger), logger)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, &stubIngester{}, &stubSummaryReader{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestListSummaries(t *testing.T) {
	reader := &stubSummaryReader{items: []domain.MessageWithSummary{
		{SummaryID: 2, ExternalID: "m-2", Subject: "Weekly report"},
		{SummaryID: 1, ExternalID: "m-1", Subject: "Meeting tomorrow"},
	}}
	r := newTestRouter(t, &stubIngester{}, reader)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/summaries", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var items []domain.MessageWithSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].SummaryID)
}

func TestListSummariesPagination(t *testing.T) {
	reader := &stubSummaryReader{items: []domain.MessageWithSummary{
		{SummaryID: 3}, {SummaryID: 2}, {SummaryID: 1},
	}}
	r := newTestRouter(t, &stubIngester{}, reader)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/summaries?skip=1&limit=1", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var items []domain.MessageWithSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].SummaryID)
}

func TestListSummariesRejectsBadParams(t *testing.T) {
	r := newTestRouter(t, &stubIngester{}, &stubSummaryReader{})

	for _, query := range []string{"?skip=-1", "?limit=0", "?limit=101", "?skip=abc", "?limit=abc"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/summaries"+query, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, "query %s", query)
	}
}

func TestRefresh(t *testing.T) {
	ingester := &stubIngester{results: []domain.MessageWithSummary{
		{SummaryID: 1, ExternalID: "m-1"},
		{SummaryID: 2, ExternalID: "m-2"},
	}}
	r := newTestRouter(t, ingester, &stubSummaryReader{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message   string                      `json:"message"`
		Summaries []domain.MessageWithSummary `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Processed 2 new emails", resp.Message)
	assert.Len(t, resp.Summaries, 2)
}

func TestRefreshFailure(t *testing.T) {
	ingester := &stubIngester{
		results: []domain.MessageWithSummary{{SummaryID: 1}},
		err:     errors.New("db gone"),
	}
	r := newTestRouter(t, ingester, &stubSummaryReader{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp struct {
		Error     string `json:"error"`
		Processed int    `json:"processed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Processed)
}

func TestMarkSeen(t *testing.T) {
	reader := &stubSummaryReader{}
	r := newTestRouter(t, &stubIngester{}, reader)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/summaries/42/seen", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.Equal(t, []int64{42}, reader.seenIDs)
}

func TestMarkSeenNotFound(t *testing.T) {
	reader := &stubSummaryReader{seenErr: domain.ErrNotFound}
	r := newTestRouter(t, &stubIngester{}, reader)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/summaries/9999/seen", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkSeenBadID(t *testing.T) {
	r := newTestRouter(t, &stubIngester{}, &stubSummaryReader{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/summaries/abc/seen", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
