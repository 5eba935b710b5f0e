package database

import (
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/mager/species/config"
	"go.uber.org/zap"
)

// ProvideDatabase provides a postgres client. It returns a nil client when
// no database URL is configured.
func ProvideDatabase(logger *zap.SugaredLogger, cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		logger.Infow("No database configured, reports will not be stored")
		return nil, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Errorw("Failed to open database connection", zap.Error(err))
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		logger.Errorw("Failed to ping database", zap.Error(err))
		return nil, err
	}

	return db, nil
}

var Options = ProvideDatabase
