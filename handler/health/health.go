package health

import (
	"net/http"

	"github.com/mager/species/grader"
	"github.com/mager/species/handler/respond"
	"go.uber.org/zap"
)

// HealthHandler reports whether the server and its optional stores are up.
type HealthHandler struct {
	log    *zap.SugaredLogger
	grader *grader.Grader
}

func (*HealthHandler) Pattern() string {
	return "/health"
}

// NewHealthHandler builds a new HealthHandler.
func NewHealthHandler(log *zap.SugaredLogger, g *grader.Grader) *HealthHandler {
	return &HealthHandler{
		log:    log,
		grader: g,
	}
}

type Response struct {
	Status string `json:"status"`
	Store  bool   `json:"store"`
}

// ServeHTTP handles an HTTP request to the /health endpoint.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.log.Debugw("health check")

	resp := Response{Status: "OK"}
	if h.grader != nil {
		resp.Store = h.grader.Stores()
	}
	respond.JSON(h.log, w, http.StatusOK, resp)
}
