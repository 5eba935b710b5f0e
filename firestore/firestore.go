package firestore

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/mager/species/config"
	"github.com/mager/species/report"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const reportsCollection = "reports"

var ErrNotArchived = errors.New("report not archived")

// ProvideDB provides a firestore client, or nil when no project is set.
func ProvideDB(cfg config.Config) *firestore.Client {
	if cfg.FirestoreProject == "" {
		return nil
	}

	client, err := firestore.NewClient(context.TODO(), cfg.FirestoreProject)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	return client
}

// Archive keeps a copy of every report, one document per report id.
type Archive struct {
	fs *firestore.Client
}

func NewArchive(fs *firestore.Client) *Archive {
	return &Archive{fs: fs}
}

// ProvideArchive returns nil when firestore is not configured.
func ProvideArchive(fs *firestore.Client) *Archive {
	if fs == nil {
		return nil
	}
	return NewArchive(fs)
}

func (a *Archive) Put(ctx context.Context, rep *report.Report) error {
	_, err := a.fs.Collection(reportsCollection).Doc(rep.ID.String()).Set(ctx, rep)
	if err != nil {
		return fmt.Errorf("archiving report %s: %w", rep.ID, err)
	}
	return nil
}

func (a *Archive) Get(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	doc, err := a.fs.Collection(reportsCollection).Doc(id.String()).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotArchived, id)
	}
	if err != nil {
		return nil, err
	}

	var rep report.Report
	if err := doc.DataTo(&rep); err != nil {
		return nil, err
	}
	rep.ID = id
	return &rep, nil
}

var Options = ProvideDB
