package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sharpchess/internal/analysis"
	"sharpchess/internal/game"
	"sharpchess/internal/jobs"
	"sharpchess/internal/storage"
	"sharpchess/pkg/utils"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Hub     *game.Hub
	Jobs    *jobs.Hub
	Store   *storage.Store
	Log     zerolog.Logger
	Version string
}

// NewHandler creates a new handler instance
func NewHandler(hub *game.Hub, jh *jobs.Hub, store *storage.Store, log zerolog.Logger) *Handler {
	return &Handler{Hub: hub, Jobs: jh, Store: store, Log: log}
}

// Routes registers every endpoint behind the middleware chain.
func (h *Handler) Routes(origin string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/evaluate", h.HandleEvaluate)
	mux.HandleFunc("/evaluation-result", h.HandleEvaluationResult)
	mux.HandleFunc("/sharpness", h.HandleSharpness)
	mux.HandleFunc("/sharpness-result", h.HandleSharpnessResult)
	mux.HandleFunc("/best-lines", h.HandleBestLines)
	mux.HandleFunc("/best-lines-result", h.HandleBestLinesResult)
	mux.HandleFunc("/healthz", h.HandleHealth)
	mux.HandleFunc("/stats", h.HandleStats)
	mux.HandleFunc("/analyses/", h.HandleAnalysis)

	mux.HandleFunc("/new", h.HandleNew)
	mux.HandleFunc("/games/", h.HandleGame)
	mux.HandleFunc("/sse/", h.HandleSSE)
	mux.HandleFunc("/move/", h.HandleMove)
	mux.HandleFunc("/reset/", h.HandleReset)
	mux.HandleFunc("/", h.HandleHome)

	return CORS(origin, RequestID(AccessLog(h.Log, Recover(h.Log, mux))))
}

// HandleHome answers the root path and turns every unknown path into a
// JSON 404.
func (h *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.Log.Warn().Str("rid", GetRequestID(r.Context())).Str("path", r.URL.Path).Msg("404 error")
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Welcome to the Chess Analysis API"))
}

// HandleHealth reports liveness and the build.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "commit": h.Version})
}

// HandleStats reports counts of persisted analyses.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.FetchStats(r.Context())
	if err != nil {
		h.Log.Error().Err(err).Str("rid", GetRequestID(r.Context())).Msg("fetch stats")
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// HandleAnalysis returns one persisted analysis by job id.
func (h *Handler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(utils.PathID(r.URL.Path, "/analyses/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid job id")
		return
	}
	row, err := h.Store.Get(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
		return
	case err != nil:
		h.Log.Error().Err(err).Str("rid", GetRequestID(r.Context())).Msg("fetch analysis")
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	WriteJSON(w, http.StatusOK, row)
}

type evaluateBody struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
}

type sharpnessBody struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
}

type bestLinesBody struct {
	CurrentFEN    string `json:"current_fen"`
	NumberOfLines int    `json:"number_of_lines"`
	Depth         int    `json:"depth"`
}

// HandleEvaluate accepts an evaluation job.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var body evaluateBody
	if !h.decodePost(w, r, &body) {
		return
	}
	h.submit(w, r, jobs.KindEvaluation, jobs.Request{FEN: body.FEN, Depth: body.Depth}, "Evaluation request received")
}

// HandleSharpness accepts a sharpness job.
func (h *Handler) HandleSharpness(w http.ResponseWriter, r *http.Request) {
	var body sharpnessBody
	if !h.decodePost(w, r, &body) {
		return
	}
	h.submit(w, r, jobs.KindSharpness, jobs.Request{FEN: body.FEN, Depth: body.Depth}, "Sharpness calculation request received")
}

// HandleBestLines accepts a best-lines job.
func (h *Handler) HandleBestLines(w http.ResponseWriter, r *http.Request) {
	var body bestLinesBody
	if !h.decodePost(w, r, &body) {
		return
	}
	req := jobs.Request{FEN: body.CurrentFEN, Depth: body.Depth, Lines: body.NumberOfLines}
	h.submit(w, r, jobs.KindBestLines, req, "Best lines request received")
}

// HandleEvaluationResult reports the latest evaluation job.
func (h *Handler) HandleEvaluationResult(w http.ResponseWriter, r *http.Request) {
	h.result(w, r, jobs.KindEvaluation, "evaluation")
}

// HandleSharpnessResult reports the latest sharpness job.
func (h *Handler) HandleSharpnessResult(w http.ResponseWriter, r *http.Request) {
	h.result(w, r, jobs.KindSharpness, "sharpness")
}

// HandleBestLinesResult reports the latest best-lines job.
func (h *Handler) HandleBestLinesResult(w http.ResponseWriter, r *http.Request) {
	h.result(w, r, jobs.KindBestLines, "best_lines")
}

func (h *Handler) decodePost(w http.ResponseWriter, r *http.Request, v any) bool {
	rid := GetRequestID(r.Context())
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	if !isJSON(r) {
		h.Log.Warn().Str("rid", rid).Msg("Request Content-Type is not application/json")
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.Log.Warn().Err(err).Str("rid", rid).Msg("Failed to parse JSON data")
		writeError(w, http.StatusBadRequest, "Invalid JSON data")
		return false
	}
	return true
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, kind jobs.Kind, req jobs.Request, message string) {
	rid := GetRequestID(r.Context())
	if req.FEN == "" {
		h.Log.Warn().Str("rid", rid).Msg("FEN string not provided in request")
		writeError(w, http.StatusBadRequest, "FEN string is required")
		return
	}
	if err := analysis.ValidateFEN(req.FEN); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid FEN: %v", err))
		return
	}
	job, err := h.Jobs.Submit(kind, req)
	if err != nil {
		h.Log.Error().Err(err).Str("rid", rid).Msg("submit job")
		writeError(w, http.StatusServiceUnavailable, "Analysis is not available")
		return
	}
	h.Log.Info().Str("rid", rid).Str("kind", string(kind)).Str("fen", job.Request.FEN).
		Int("depth", job.Request.Depth).Str("id", job.ID.String()).Msg("job accepted")
	WriteJSON(w, http.StatusAccepted, map[string]any{"message": message, "id": job.ID})
}

func (h *Handler) result(w http.ResponseWriter, r *http.Request, kind jobs.Kind, field string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	slot, err := h.Jobs.Slot(kind)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Analysis is not available")
		return
	}
	var id uuid.UUID
	if s := r.URL.Query().Get("id"); s != "" {
		if id, err = uuid.Parse(s); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid job id")
			return
		}
	}

	snap := slot.Lookup(id)
	body := map[string]any{"status": snap.Status}
	if snap.ID != uuid.Nil {
		body["id"] = snap.ID
	}
	switch snap.Status {
	case jobs.StatusCompleted:
		body[field] = snap.Result
	case jobs.StatusFailed:
		body["error"] = snap.Error
	}
	WriteJSON(w, http.StatusOK, body)
}

// HandleNew creates a new game against the bot
func (h *Handler) HandleNew(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	id, g := h.Hub.Create()
	WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": id, "state": g.State()})
}

// HandleGame returns the state of a game
func (h *Handler) HandleGame(w http.ResponseWriter, r *http.Request) {
	id := utils.PathID(r.URL.Path, "/games/")
	g, ok := h.Hub.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	g.Touch()
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "state": g.State()})
}

// HandleSSE handles Server-Sent Events for real-time game updates
func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	id := utils.PathID(r.URL.Path, "/sse/")
	g := h.Hub.Get(id)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan []byte, 16)
	g.AddWatcher(ch)

	initial, _ := json.Marshal(g.State())
	_, _ = fmt.Fprintf(w, "data: %s\n\n", initial)
	flusher.Flush()

	g.Touch()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	defer g.RemoveWatcher(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// heartbeat
			_, _ = w.Write([]byte("data: {}\n\n"))
			flusher.Flush()
		case msg := <-ch:
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(msg)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

// HandleMove processes the player's move
func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	id := utils.PathID(r.URL.Path, "/move/")
	g, ok := h.Hub.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	var m game.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad json"})
		return
	}

	g.Touch()
	err := g.MakeMove(m.ToUCI())
	state := g.State()
	switch {
	case errors.Is(err, game.ErrIllegalMove):
		WriteJSON(w, http.StatusOK, map[string]any{"ok": false, "error": game.MsgInvalidMove, "state": state})
		return
	case err != nil:
		WriteJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error(), "state": state})
		return
	}

	go g.Broadcast()
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "state": state})
}

// HandleReset resets a game to the starting position
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	id := utils.PathID(r.URL.Path, "/reset/")
	g, ok := h.Hub.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	g.Reset()
	state := g.State()

	go g.Broadcast()
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "state": state})
}
