package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mager/species/config"
	"go.uber.org/zap"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identify the student submitting work.
type Claims struct {
	Student string `json:"student"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

// Verifier checks bearer tokens signed with a shared HS256 secret.
type Verifier struct {
	secret []byte
	log    *zap.SugaredLogger
}

func NewVerifier(secret string, log *zap.SugaredLogger) *Verifier {
	return &Verifier{secret: []byte(secret), log: log}
}

// ProvideVerifier returns nil when no secret is configured; requests are
// then anonymous.
func ProvideVerifier(cfg config.Config, log *zap.SugaredLogger) *Verifier {
	if cfg.JWTSecret == "" {
		return nil
	}
	return NewVerifier(cfg.JWTSecret, log)
}

// Issue signs a token for student valid for ttl.
func (v *Verifier) Issue(student string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Student: student,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   student,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Validate parses a token and returns its claims.
func (v *Verifier) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Student == "" {
		claims.Student = claims.Subject
	}
	if claims.Student == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// student id on the request context. A nil verifier lets every request
// through.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	if v == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
			return
		}
		claims, err := v.Validate(token)
		if err != nil {
			v.log.Warnw("Rejected token", "path", r.URL.Path, "err", err)
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithStudent(r.Context(), claims.Student)))
	})
}

func WithStudent(ctx context.Context, student string) context.Context {
	return context.WithValue(ctx, ctxKey{}, student)
}

// Student returns the authenticated student, or "" for anonymous requests.
func Student(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}
