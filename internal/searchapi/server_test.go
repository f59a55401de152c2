package searchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/camelCaseNick/dialect/internal/locale"
	"github.com/camelCaseNick/dialect/internal/search"
	"github.com/camelCaseNick/dialect/internal/settings"
)

type cannedTransport struct {
	body string
}

func (t *cannedTransport) Send(_ context.Context, _ *http.Request) ([]byte, error) {
	return []byte(t.body), nil
}

type noopLauncher struct {
	launches int
}

func (l *noopLauncher) Launch(_ context.Context, _ string, _ uint32) error {
	l.launches++
	return nil
}

func newTestServer(t *testing.T) (*Server, *noopLauncher) {
	t.Helper()

	store := settings.New(zerolog.Nop())
	store.Set("google", settings.KeyDestLangs, []string{"fr"})

	transport := &cannedTransport{body: `[[["bonjour","hello",null,null,10]],null,"en"]`}
	messages := locale.New("en")
	orch := search.NewOrchestrator(store, transport, messages, zerolog.Nop())
	orch.Reload(context.Background())

	launcher := &noopLauncher{}
	adapter := search.NewAdapter(orch, launcher, messages, zerolog.Nop())
	return NewServer(adapter, orch, zerolog.Nop(), Options{}), launcher
}

func doJSON(t *testing.T, e http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestInitialResultSetRoundTrip(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	e := srv.buildEcho()

	rec := doJSON(t, e, http.MethodPost, "/api/v1/search/initial", `{"terms": ["hello"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rec.Code, rec.Body)
	}

	var resp idsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.IDs) != 2 || resp.IDs[0] != "hello" || resp.IDs[1] != "copy-to-clipboardhello" {
		t.Fatalf("unexpected ids: %v", resp.IDs)
	}
}

func TestResultMetasRoundTrip(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	e := srv.buildEcho()

	doJSON(t, e, http.MethodPost, "/api/v1/search/initial", `{"terms": ["hello"]}`)
	rec := doJSON(t, e, http.MethodPost, "/api/v1/search/metas", `{"ids": ["hello", "copy-to-clipboardhello"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rec.Code, rec.Body)
	}

	var resp metasResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Metas) != 2 {
		t.Fatalf("unexpected metas: %+v", resp.Metas)
	}
	if resp.Metas[0].Name != "bonjour" || resp.Metas[1].ClipboardText != "bonjour" {
		t.Fatalf("unexpected meta payload: %+v", resp.Metas)
	}
}

func TestActivateLaunches(t *testing.T) {
	t.Parallel()

	srv, launcher := newTestServer(t)
	e := srv.buildEcho()

	rec := doJSON(t, e, http.MethodPost, "/api/v1/search/activate", `{"id": "hello", "terms": ["hello"], "timestamp": 7}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d (%s)", rec.Code, rec.Body)
	}
	if launcher.launches != 1 {
		t.Fatalf("expected one launch, got %d", launcher.launches)
	}
}

func TestHealthReportsBackendState(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	e := srv.buildEcho()

	rec := doJSON(t, e, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["backend"] != "google" || resp["ready"] != true {
		t.Fatalf("unexpected health payload: %v", resp)
	}
}

func TestBadBodyIsRejected(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	e := srv.buildEcho()

	rec := doJSON(t, e, http.MethodPost, "/api/v1/search/initial", `{bad`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
