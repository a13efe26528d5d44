package syncer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpattn/rulesync/internal/domain"
)

func TestHandlerRunsSyncOnPost(t *testing.T) {
	artifact := tempArtifact(t, "rules.csv", csvPayload)
	service := newTestService(&stubFetcher{artifact: artifact}, newStubFingerprints(), &stubRuleStore{})
	handler := NewHTTPHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/sync?execution_id=web-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var outcome domain.Outcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("failed to decode outcome: %v", err)
	}
	if !outcome.Success || outcome.Status != domain.StatusPublished {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.ExecutionID != "web-1" {
		t.Fatalf("expected execution id from query, got %q", outcome.ExecutionID)
	}
}

func TestHandlerRejectsNonPost(t *testing.T) {
	service := newTestService(&stubFetcher{}, newStubFingerprints(), &stubRuleStore{})
	handler := NewHTTPHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/sync", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandlerMapsNoValidRulesTo422(t *testing.T) {
	payload := "Id,Descripcion,Tipo,Artefacto,Criticidad\n,x,semantica,,\n"
	artifact := tempArtifact(t, "rules.csv", payload)
	service := newTestService(&stubFetcher{artifact: artifact}, newStubFingerprints(), &stubRuleStore{})
	handler := NewHTTPHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}
