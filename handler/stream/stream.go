package stream

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mager/species/auth"
	"github.com/mager/species/config"
	"github.com/mager/species/grader"
	"github.com/mager/species/score"
	"github.com/mager/species/species"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Request is the single message a client sends after connecting.
type Request struct {
	Species int             `json:"species"`
	Score   json.RawMessage `json:"score"`
}

// RuleFrame carries the findings of one rule.
type RuleFrame struct {
	Rule     string   `json:"rule"`
	Findings []string `json:"findings"`
}

// DoneFrame closes the stream with the full report.
type DoneFrame struct {
	Done    bool     `json:"done"`
	ID      string   `json:"id"`
	Results []string `json:"results"`
}

type ErrorFrame struct {
	Error string `json:"error"`
}

// StreamHandler runs an analysis over a websocket, sending each rule's
// findings as soon as the rule has run.
type StreamHandler struct {
	log    *zap.SugaredLogger
	cfg    config.Config
	grader *grader.Grader
}

func (*StreamHandler) Pattern() string {
	return "/stream"
}

func NewStreamHandler(log *zap.SugaredLogger, cfg config.Config, g *grader.Grader) *StreamHandler {
	return &StreamHandler{log: log, cfg: cfg, grader: g}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorw("Failed to upgrade websocket", zap.Error(err))
		return
	}
	defer ws.Close()
	ws.SetReadLimit(h.cfg.MaxScoreBytes)

	var req Request
	if err := ws.ReadJSON(&req); err != nil {
		h.log.Infow("Websocket client sent no request", "err", err)
		h.send(ws, ErrorFrame{Error: "expected {\"species\": N, \"score\": {...}}"})
		return
	}
	if req.Species == 0 {
		req.Species = h.cfg.DefaultSpecies
	}
	sc := &score.Score{}
	if err := json.Unmarshal(req.Score, sc); err != nil {
		h.send(ws, ErrorFrame{Error: err.Error()})
		return
	}
	if err := sc.Validate(); err != nil {
		h.send(ws, ErrorFrame{Error: err.Error()})
		return
	}

	var writeErr error
	observer := func(rule species.Rule, findings []species.Finding) {
		if writeErr != nil {
			return
		}
		frame := RuleFrame{Rule: rule.Name, Findings: make([]string, 0, len(findings))}
		for _, f := range findings {
			frame.Findings = append(frame.Findings, f.String())
		}
		writeErr = h.send(ws, frame)
	}

	rep, err := h.grader.Grade(r.Context(), auth.Student(r.Context()), sc, req.Species, observer)
	if err != nil {
		h.send(ws, ErrorFrame{Error: err.Error()})
		return
	}
	if writeErr != nil {
		h.log.Infow("Websocket client went away", "err", writeErr)
		return
	}
	h.send(ws, DoneFrame{Done: true, ID: rep.ID.String(), Results: rep.Findings})
	ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (h *StreamHandler) send(ws *websocket.Conn, v any) error {
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	err := ws.WriteJSON(v)
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		h.log.Warnw("Failed to write websocket frame", "err", err)
	}
	return err
}
