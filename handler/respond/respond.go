package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mager/species/score"
	"github.com/mager/species/species"
	"github.com/mager/species/theory"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func JSON(log *zap.SugaredLogger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorw("Failed to encode response", zap.Error(err))
	}
}

func Error(log *zap.SugaredLogger, w http.ResponseWriter, status int, err error) {
	JSON(log, w, status, ErrorResponse{Error: err.Error()})
}

// StatusFor maps analysis and decoding errors to a response status.
func StatusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, score.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, score.ErrMalformedScore),
		errors.Is(err, theory.ErrInvalidPitch),
		errors.Is(err, theory.ErrInvalidRatio),
		errors.Is(err, theory.ErrInvalidKey),
		errors.Is(err, theory.ErrInvalidMeter),
		errors.Is(err, species.ErrInvalidSpecies):
		return http.StatusBadRequest
	case errors.Is(err, species.ErrMissingVoices),
		errors.Is(err, species.ErrMissingKey),
		errors.Is(err, species.ErrEmptyVoice),
		errors.Is(err, species.ErrInvalidSettings):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
