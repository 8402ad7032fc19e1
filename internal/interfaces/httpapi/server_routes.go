package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerDashboardRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/sync/runs", handler.ListSyncRuns)
	mux.HandleFunc("GET /v1/sync/runs/{runID}", handler.GetSyncRun)

	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("GET /v1/players/{playerID}", handler.GetPlayer)
	mux.HandleFunc("GET /v1/players/{playerID}/scores", handler.GetPlayerScores)

	mux.HandleFunc("GET /v1/formations", handler.ListFormations)
	mux.HandleFunc("POST /v1/formations/selection", handler.SelectFormation)

	mux.HandleFunc("GET /v1/matches", handler.ListMatches)
	// Registered before {matchID} so the literal segment wins.
	mux.HandleFunc("GET /v1/matches/week/official", handler.ThisWeekOfficialMatches)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/sync", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSync)))
}
