package http

import (
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"passroast-server/pkg/analyzer"
	"passroast-server/pkg/errors"
	"passroast-server/pkg/events"
	"passroast-server/pkg/roast"

	"github.com/sirupsen/logrus"
)

// AnalyzeHandler handles HTTP requests for password analysis
type AnalyzeHandler struct {
	logger     *logrus.Logger
	engine     *analyzer.Engine
	roasts     *roast.Manager
	dispatcher *events.Dispatcher
	maxLength  int
}

// analyzeRequest is the POST /api/analyze request body. Roast defaults to
// true when omitted.
type analyzeRequest struct {
	Password string `json:"password"`
	Roast    *bool  `json:"roast"`
}

// analyzeResponse is the analysis record plus the roast line
type analyzeResponse struct {
	*analyzer.Analysis
	Roast string `json:"roast,omitempty"`
}

// NewAnalyzeHandler creates a new analysis handler. The roast manager and
// dispatcher may be nil, which disables roasting and event fan-out.
func NewAnalyzeHandler(logger *logrus.Logger, engine *analyzer.Engine, roasts *roast.Manager, dispatcher *events.Dispatcher, maxLength int) *AnalyzeHandler {
	return &AnalyzeHandler{
		logger:     logger,
		engine:     engine,
		roasts:     roasts,
		dispatcher: dispatcher,
		maxLength:  maxLength,
	}
}

// RegisterHandlers registers the analysis endpoints with the HTTP server
func (h *AnalyzeHandler) RegisterHandlers(server *Server) {
	server.RegisterHandler("/api/analyze", h.handleAnalyze)
}

// handleAnalyze handles POST requests for password analysis
func (h *AnalyzeHandler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, errors.NewInvalidInput("Invalid JSON body"))
		return
	}

	if req.Password == "" {
		errors.WriteError(w, errors.NewEmptyPassword())
		return
	}

	if length := utf8.RuneCountInString(req.Password); length > h.maxLength {
		errors.WriteError(w, errors.NewPasswordTooLong(length, h.maxLength))
		return
	}

	analysis := h.engine.Analyze(r.Context(), req.Password)

	if h.dispatcher != nil {
		h.dispatcher.Dispatch(events.FromAnalysis(analysis))
	}

	resp := analyzeResponse{Analysis: analysis}
	if h.roasts != nil && (req.Roast == nil || *req.Roast) {
		resp.Roast = h.roasts.Generate(r.Context(), analysis)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.WithError(err).Error("Failed to encode analysis response")
	}
}
