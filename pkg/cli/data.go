package cli

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mchmarny/nanotox/pkg/score"
	"github.com/mchmarny/nanotox/pkg/toxicity"
)

const maxRequestBytes = 1 << 16

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func healthAPIHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
}

func tableAPIHandler(tbl *toxicity.Table) http.HandlerFunc {
	summary := summarize(tbl)
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, summary)
	}
}

// scoreAPIHandler answers 200 with a scored report, 422 with the full issue
// list when the request is rejected and 400 when the body is not a request.
func scoreAPIHandler(engine *score.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req score.Request
		if err := dec.Decode(&req); err != nil {
			slog.Debug("invalid score request", "error", err)
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rep := engine.Evaluate(req)
		status := http.StatusOK
		if !rep.Scored {
			status = http.StatusUnprocessableEntity
		}
		slog.Debug("score request",
			"constituents", len(req.Constituents),
			"scored", rep.Scored,
			"issues", len(rep.Errors))
		writeJSON(w, status, rep)
	}
}
