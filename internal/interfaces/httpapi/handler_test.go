package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/htdash/htdash/internal/infrastructure/repository/memory"
	"github.com/htdash/htdash/internal/platform/logging"
	"github.com/htdash/htdash/internal/usecase"
)

const handlerTestTeamID int64 = 42

type routerFeed struct {
	players []usecase.ExternalPlayerRecord
	matches []usecase.ExternalMatch
}

func (f *routerFeed) FetchPlayers(_ context.Context) ([]usecase.ExternalPlayerRecord, error) {
	return f.players, nil
}

func (f *routerFeed) FetchAvatars(_ context.Context) ([]usecase.ExternalAvatar, error) {
	return nil, nil
}

func (f *routerFeed) FetchMatches(_ context.Context, _ int64) ([]usecase.ExternalMatch, error) {
	return f.matches, nil
}

func newTestRouter(t *testing.T, feed *routerFeed) http.Handler {
	t.Helper()

	logger := logging.NewNop()
	players := memory.NewPlayerRepository()
	matches := memory.NewMatchRepository()
	runs := memory.NewSyncRunRepository()

	syncService := usecase.NewSyncService(feed, players, matches, runs, handlerTestTeamID, logger)
	weekly := usecase.NewWeeklyDiffService(players, 4, logger)
	rosterService := usecase.NewRosterService(players, weekly, handlerTestTeamID, logger)
	matchService := usecase.NewMatchService(matches, handlerTestTeamID, logger)

	handler := NewHandler(syncService, rosterService, matchService, logger)
	return NewRouter(handler, logger, []string{"*"}, "job-secret")
}

func doRequest(t *testing.T, router http.Handler, method, target, token, body string) (*httptest.ResponseRecorder, googleResponseEnvelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("X-Internal-Job-Token", token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope googleResponseEnvelope
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope from %s %s: %v (body %s)", method, target, err, rec.Body.String())
	}
	return rec, envelope
}

func seedSync(t *testing.T, router http.Handler) {
	t.Helper()
	rec, envelope := doRequest(t, router, http.MethodPost, "/v1/sync", "job-secret", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("seed sync status = %d body=%s", rec.Code, rec.Body.String())
	}
	if envelope.Error != nil {
		t.Fatalf("seed sync error: %+v", envelope.Error)
	}
}

func rosterFeed() *routerFeed {
	return &routerFeed{
		players: []usecase.ExternalPlayerRecord{
			{
				ExternalID: 1001,
				TeamID:     handlerTestTeamID,
				Name:       "Jan Kowalski",
				Attributes: map[string]any{
					"KeeperSkill":  "15",
					"PlayerForm":   "7",
					"Experience":   "5",
					"StaminaSkill": "7",
				},
			},
		},
		matches: []usecase.ExternalMatch{
			{
				ExternalID: 9001,
				TeamID:     handlerTestTeamID,
				Date:       time.Now().UTC().Add(-24 * time.Hour),
				Status:     "FINISHED",
				TypeCode:   1,
			},
		},
	}
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t, rosterFeed())

	rec, envelope := doRequest(t, router, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if envelope.Error != nil {
		t.Fatalf("unexpected error: %+v", envelope.Error)
	}
}

func TestRouter_SyncRequiresJobToken(t *testing.T) {
	router := newTestRouter(t, rosterFeed())

	rec, _ := doRequest(t, router, http.MethodPost, "/v1/sync", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rec.Code)
	}

	rec, _ = doRequest(t, router, http.MethodPost, "/v1/sync", "job-secret", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status with token = %d, want 200", rec.Code)
	}
}

func TestRouter_PlayersFlow(t *testing.T) {
	router := newTestRouter(t, rosterFeed())
	seedSync(t, router)

	rec, envelope := doRequest(t, router, http.MethodGet, "/v1/players", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list players status = %d body=%s", rec.Code, rec.Body.String())
	}
	entries, ok := envelope.Data.([]any)
	if !ok || len(entries) != 1 {
		t.Fatalf("expected 1 roster entry, got %T %v", envelope.Data, envelope.Data)
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/players/1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get player status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec, envelope = doRequest(t, router, http.MethodGet, "/v1/players/1/scores", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get scores status = %d body=%s", rec.Code, rec.Body.String())
	}
	scores, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("scores payload type %T", envelope.Data)
	}
	if scores["bestPosition"] != "GK" {
		t.Fatalf("best position = %v, want GK", scores["bestPosition"])
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/players/999", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing player status = %d, want 404", rec.Code)
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/players/abc", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", rec.Code)
	}
}

func TestRouter_FormationsFlow(t *testing.T) {
	router := newTestRouter(t, rosterFeed())
	seedSync(t, router)

	rec, envelope := doRequest(t, router, http.MethodGet, "/v1/formations", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list formations status = %d", rec.Code)
	}
	formations, ok := envelope.Data.([]any)
	if !ok || len(formations) != 6 {
		t.Fatalf("expected 6 formations, got %T %v", envelope.Data, envelope.Data)
	}

	rec, envelope = doRequest(t, router, http.MethodPost, "/v1/formations/selection", "", `{"formation":"4-4-2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("selection status = %d body=%s", rec.Code, rec.Body.String())
	}
	selection, ok := envelope.Data.(map[string]any)
	if !ok || selection["formation"] != "4-4-2" {
		t.Fatalf("unexpected selection payload: %v", envelope.Data)
	}

	rec, _ = doRequest(t, router, http.MethodPost, "/v1/formations/selection", "", `{"formation":"9-9-9"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown formation status = %d, want 400", rec.Code)
	}

	rec, _ = doRequest(t, router, http.MethodPost, "/v1/formations/selection", "", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing formation status = %d, want 400", rec.Code)
	}
}

func TestRouter_MatchesFlow(t *testing.T) {
	router := newTestRouter(t, rosterFeed())
	seedSync(t, router)

	rec, envelope := doRequest(t, router, http.MethodGet, "/v1/matches", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list matches status = %d", rec.Code)
	}
	matches, ok := envelope.Data.([]any)
	if !ok || len(matches) != 1 {
		t.Fatalf("expected 1 match, got %T %v", envelope.Data, envelope.Data)
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/matches/1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get match status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/matches/week/official", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("week official status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/matches?limit=-1", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative limit status = %d, want 400", rec.Code)
	}
}

func TestRouter_SyncRuns(t *testing.T) {
	router := newTestRouter(t, rosterFeed())
	seedSync(t, router)

	rec, envelope := doRequest(t, router, http.MethodGet, "/v1/sync/runs", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list runs status = %d", rec.Code)
	}
	runs, ok := envelope.Data.([]any)
	if !ok || len(runs) != 1 {
		t.Fatalf("expected 1 run, got %T %v", envelope.Data, envelope.Data)
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/sync/runs/1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get run status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/sync/runs/999", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing run status = %d, want 404", rec.Code)
	}
}
