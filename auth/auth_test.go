package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mager/species/config"
	"github.com/mager/species/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoStudent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(Student(r.Context())))
	})
}

func TestIssueAndValidate(t *testing.T) {
	log, _ := logger.NewTestLogger()
	v := NewVerifier("secret", log)

	token, err := v.Issue("ada", time.Hour)
	require.NoError(t, err)
	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ada", claims.Student)

	_, err = NewVerifier("other", log).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := v.Issue("ada", -time.Minute)
	require.NoError(t, err)
	_, err = v.Validate(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsOtherAlgorithms(t *testing.T) {
	log, _ := logger.NewTestLogger()
	v := NewVerifier("secret", log)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{Student: "ada"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	log, logs := logger.NewTestLogger()
	v := NewVerifier("secret", log)
	h := v.Middleware(echoStudent())

	token, err := v.Issue("grace", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "grace", rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/analyze", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/analyze", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, 1, logs.FilterMessage("Rejected token").Len())
}

func TestNilVerifierIsAnonymous(t *testing.T) {
	log, _ := logger.NewTestLogger()
	assert.Nil(t, ProvideVerifier(config.Config{}, log))

	var v *Verifier
	rr := httptest.NewRecorder()
	v.Middleware(echoStudent()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
}
