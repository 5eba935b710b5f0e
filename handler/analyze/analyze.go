package analyze

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/mager/species/auth"
	"github.com/mager/species/config"
	"github.com/mager/species/grader"
	"github.com/mager/species/handler/respond"
	"github.com/mager/species/score"
	"github.com/mager/species/species"
	"github.com/mager/species/theory"
	"go.uber.org/zap"
)

// AnalyzeHandler grades an uploaded score.
type AnalyzeHandler struct {
	log    *zap.SugaredLogger
	cfg    config.Config
	grader *grader.Grader
}

func (*AnalyzeHandler) Pattern() string {
	return "/analyze"
}

// NewAnalyzeHandler builds a new AnalyzeHandler.
func NewAnalyzeHandler(log *zap.SugaredLogger, cfg config.Config, g *grader.Grader) *AnalyzeHandler {
	return &AnalyzeHandler{
		log:    log,
		cfg:    cfg,
		grader: g,
	}
}

// Analyze godoc
// @Summary Analyze a two voice exercise
// @Accept json
// @Produce json
// @Param species query int false "1 or 2"
// @Param format query string false "json, yaml, musicxml or midi"
// @Success 200 {object} report.Report
// @Router /analyze [post]
func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		respond.Error(h.log, w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	q := r.URL.Query()
	speciesNum, err := ParseSpecies(q.Get("species"), h.cfg.DefaultSpecies)
	if err != nil {
		respond.Error(h.log, w, http.StatusBadRequest, err)
		return
	}

	format, err := requestFormat(r)
	if err != nil {
		respond.Error(h.log, w, http.StatusUnsupportedMediaType, err)
		return
	}
	opts, err := decodeOptions(q.Get("signum"), q.Get("mode"), q.Get("cf"))
	if err != nil {
		respond.Error(h.log, w, http.StatusBadRequest, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.cfg.MaxScoreBytes)
	sc, err := score.Decode(body, format, opts)
	if err != nil {
		status := respond.StatusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		h.log.Infow("Rejected score", "format", format, "err", err)
		respond.Error(h.log, w, status, err)
		return
	}

	rep, err := h.grader.Grade(r.Context(), auth.Student(r.Context()), sc, speciesNum)
	if err != nil {
		status := respond.StatusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Errorw("Failed to grade score", zap.Error(err))
		}
		respond.Error(h.log, w, status, err)
		return
	}
	respond.JSON(h.log, w, http.StatusOK, rep)
}

// ParseSpecies reads a species query value, falling back to def.
func ParseSpecies(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || (n != 1 && n != 2) {
		return 0, fmt.Errorf("%w: %q, want 1 or 2", species.ErrInvalidSpecies, s)
	}
	return n, nil
}

func requestFormat(r *http.Request) (score.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return score.ParseFormat(f)
	}
	return score.FormatForContentType(r.Header.Get("Content-Type"))
}

// decodeOptions reads the key and cantus firmus placement for MIDI uploads.
func decodeOptions(signum, mode, cf string) (score.DecodeOptions, error) {
	var opts score.DecodeOptions
	if signum != "" || mode != "" {
		n := 0
		if signum != "" {
			var err error
			if n, err = strconv.Atoi(signum); err != nil {
				return opts, fmt.Errorf("%w: signum %q", theory.ErrInvalidKey, signum)
			}
		}
		if mode == "" {
			mode = "major"
		}
		key, err := theory.NewKeyNamed(n, mode)
		if err != nil {
			return opts, err
		}
		opts.Key = &key
	}
	opts.CantusFirmusAbove = cf == "above"
	return opts, nil
}
