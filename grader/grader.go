// Package grader runs analyses for the HTTP surface and keeps the reports.
package grader

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mager/species/database"
	"github.com/mager/species/firestore"
	"github.com/mager/species/metrics"
	"github.com/mager/species/report"
	"github.com/mager/species/score"
	"github.com/mager/species/species"
	"go.uber.org/zap"
)

// ErrNoStore is returned by Get when reports are not persisted.
var ErrNoStore = errors.New("no report store configured")

type Store interface {
	Save(ctx context.Context, rep *report.Report) error
	Get(ctx context.Context, id uuid.UUID) (*report.Report, error)
}

type Archive interface {
	Put(ctx context.Context, rep *report.Report) error
}

type Grader struct {
	log      *zap.SugaredLogger
	settings species.SettingsTable
	metrics  *metrics.Metrics
	store    Store
	archive  Archive
}

func New(log *zap.SugaredLogger, settings species.SettingsTable, m *metrics.Metrics, store Store, archive Archive) *Grader {
	if settings == nil {
		settings = species.DefaultSettingsTable()
	}
	return &Grader{log: log, settings: settings, metrics: m, store: store, archive: archive}
}

// ProvideGrader wires the optional repository and archive. Either may be
// nil when it is not configured.
func ProvideGrader(
	log *zap.SugaredLogger,
	settings species.SettingsTable,
	m *metrics.Metrics,
	repo *database.ReportRepository,
	archive *firestore.Archive,
) *Grader {
	g := New(log, settings, m, nil, nil)
	if repo != nil {
		g.store = repo
	}
	if archive != nil {
		g.archive = archive
	}
	return g
}

// Grade analyses sc as the given species and keeps the report. Observers
// see each rule's findings as the analysis runs.
func (g *Grader) Grade(ctx context.Context, student string, sc *score.Score, speciesNum int, observers ...species.Observer) (*report.Report, error) {
	settings, err := g.settings.For(speciesNum)
	if err != nil {
		return nil, err
	}
	opts := []species.Option{species.WithSettings(settings), species.WithLogger(g.log)}
	if g.metrics != nil {
		opts = append(opts, species.WithObserver(g.metrics.Observer()))
	}
	for _, obs := range observers {
		opts = append(opts, species.WithObserver(obs))
	}

	started := time.Now()
	findings, err := run(species.New(sc, speciesNum, opts...))
	if g.metrics != nil {
		g.metrics.ObserveAnalysis(speciesNum, started, err)
	}
	if err != nil {
		return nil, err
	}

	rep := report.New(student, sc.Title, speciesNum, findings)
	if g.store != nil {
		if err := g.store.Save(ctx, rep); err != nil {
			return nil, err
		}
	}
	if g.archive != nil {
		if err := g.archive.Put(ctx, rep); err != nil {
			g.log.Warnw("Failed to archive report", "id", rep.ID, "err", err)
		}
	}
	g.log.Infow("Graded score",
		"id", rep.ID,
		"student", student,
		"species", speciesNum,
		"findings", len(rep.Findings),
	)
	return rep, nil
}

func run(a *species.Analysis) ([]species.Finding, error) {
	if err := a.Setup(); err != nil {
		return nil, err
	}
	if err := a.Run(); err != nil {
		return nil, err
	}
	return a.Findings()
}

// Get loads a stored report.
func (g *Grader) Get(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	if g.store == nil {
		return nil, ErrNoStore
	}
	return g.store.Get(ctx, id)
}

// Stores reports whether reports are persisted.
func (g *Grader) Stores() bool { return g.store != nil }

var Options = ProvideGrader
