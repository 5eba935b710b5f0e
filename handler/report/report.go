package report

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mager/species/database"
	"github.com/mager/species/grader"
	"github.com/mager/species/handler/respond"
	"go.uber.org/zap"
)

// GetReportHandler returns a stored report by id.
type GetReportHandler struct {
	log    *zap.SugaredLogger
	grader *grader.Grader
}

func (*GetReportHandler) Pattern() string {
	return "/report/{id}"
}

func NewGetReportHandler(log *zap.SugaredLogger, g *grader.Grader) *GetReportHandler {
	return &GetReportHandler{log: log, grader: g}
}

// GetReport godoc
// @Summary Get a stored report
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} report.Report
// @Router /report/{id} [get]
func (h *GetReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		respond.Error(h.log, w, http.StatusBadRequest, fmt.Errorf("invalid report id %q", raw))
		return
	}

	rep, err := h.grader.Get(r.Context(), id)
	switch {
	case errors.Is(err, grader.ErrNoStore):
		respond.Error(h.log, w, http.StatusServiceUnavailable, err)
	case errors.Is(err, database.ErrReportNotFound):
		respond.Error(h.log, w, http.StatusNotFound, err)
	case err != nil:
		h.log.Errorw("Failed to fetch report", "id", id, zap.Error(err))
		respond.Error(h.log, w, http.StatusInternalServerError, errors.New("failed to fetch report"))
	default:
		respond.JSON(h.log, w, http.StatusOK, rep)
	}
}
