package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/datallboy/gofetch/internal/api/controllers"
	"github.com/datallboy/gofetch/internal/app"
	"github.com/datallboy/gofetch/internal/domain"
	"github.com/datallboy/gofetch/internal/infra/logger"
	"github.com/datallboy/gofetch/internal/progress"
)

type fakeStore struct {
	runs []*domain.Run
}

func (f *fakeStore) SaveRun(run *domain.Run) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeStore) GetRun(id string) (*domain.Run, error) {
	for _, r := range f.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListRuns(limit int) ([]*domain.Run, error) {
	out := make([]*domain.Run, 0, limit)
	for i := len(f.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.runs[i])
	}
	return out, nil
}

func newTestServer(t *testing.T, store app.RunStore) (*httptest.Server, *progress.Aggregator) {
	t.Helper()
	appCtx := app.NewContext(nil, logger.Nop())
	appCtx.Store = store

	agg := progress.NewAggregator()
	e := echo.New()
	RegisterRoutes(e, appCtx, agg)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, agg
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: expected %d, got %d: %s", url, wantStatus, resp.StatusCode, body)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
}

func TestProgressEndpoint(t *testing.T) {
	srv, agg := newTestServer(t, nil)
	agg.Reset(4, 1000)
	agg.Advance(250, 0)
	agg.FileCompleted()

	var got controllers.ProgressResponse
	getJSON(t, srv.URL+"/api/progress", http.StatusOK, &got)

	want := progress.Snapshot{FilesCompleted: 1, FilesTotal: 4, BytesCompleted: 250, BytesTotal: 1000}
	if got.Snapshot != want {
		t.Errorf("expected %+v, got %+v", want, got.Snapshot)
	}
	if got.Percent != 25 || got.Done {
		t.Errorf("unexpected percent/done: %v/%t", got.Percent, got.Done)
	}
}

func TestRunsEndpoints(t *testing.T) {
	store := &fakeStore{}
	for _, id := range []string{"a", "b", "c"} {
		store.SaveRun(&domain.Run{ID: id, Name: "run-" + id, Status: domain.StatusCompleted, StartedAt: time.Now()})
	}
	srv, _ := newTestServer(t, store)

	var runs []domain.Run
	getJSON(t, srv.URL+"/api/runs?limit=2", http.StatusOK, &runs)
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("unexpected runs %+v", runs)
	}

	var run domain.Run
	getJSON(t, srv.URL+"/api/runs/a", http.StatusOK, &run)
	if run.Name != "run-a" || run.Status != domain.StatusCompleted {
		t.Errorf("unexpected run %+v", run)
	}

	getJSON(t, srv.URL+"/api/runs/zzz", http.StatusNotFound, nil)
	getJSON(t, srv.URL+"/api/runs?limit=abc", http.StatusBadRequest, nil)
}

func TestRunsWithoutStore(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	getJSON(t, srv.URL+"/api/runs", http.StatusServiceUnavailable, nil)
	getJSON(t, srv.URL+"/api/runs/a", http.StatusServiceUnavailable, nil)
}

func TestServerStartAndShutdown(t *testing.T) {
	agg := progress.NewAggregator()
	s := NewServer(app.NewContext(nil, logger.Nop()), agg, "127.0.0.1:0")
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var got controllers.ProgressResponse
	getJSON(t, "http://"+s.Addr()+"/api/progress", http.StatusOK, &got)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
