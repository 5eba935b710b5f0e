package rules

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mager/species/logger"
	"github.com/mager/species/species"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesHandler(t *testing.T) {
	log, _ := logger.NewTestLogger()
	rr := httptest.NewRecorder()
	NewRulesHandler(log).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/rules", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	catalog := species.Catalog()
	require.Len(t, resp.Rules, len(catalog))
	for i, rule := range catalog {
		assert.Equal(t, rule.Name, resp.Rules[i].Name)
		assert.NotEmpty(t, resp.Rules[i].Description)
	}
}
