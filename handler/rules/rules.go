package rules

import (
	"net/http"

	"github.com/mager/species/handler/respond"
	"github.com/mager/species/species"
	"go.uber.org/zap"
)

// RulesHandler lists the rule catalogue in the order rules run.
type RulesHandler struct {
	log *zap.SugaredLogger
}

func (*RulesHandler) Pattern() string {
	return "/rules"
}

func NewRulesHandler(log *zap.SugaredLogger) *RulesHandler {
	return &RulesHandler{log: log}
}

type Rule struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Response struct {
	Rules []Rule `json:"rules"`
}

func (h *RulesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var resp Response
	for _, rule := range species.Catalog() {
		resp.Rules = append(resp.Rules, Rule{Name: rule.Name, Description: rule.Description})
	}
	respond.JSON(h.log, w, http.StatusOK, resp)
}
