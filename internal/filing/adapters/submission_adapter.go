package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/ports"
	"taxfile/pkg/platform/outbox"
	"taxfile/pkg/platform/tx"
	"taxfile/pkg/requestcontext"
)

// EventFilingAccepted is the outbox event type relayed to the submissions topic.
const EventFilingAccepted = "filing_accepted"

// SubmissionSaver persists accepted submissions.
type SubmissionSaver interface {
	Save(ctx context.Context, sub *models.Submission) error
}

// SubmissionGateway implements ports.SubmissionPort. The submission row and
// its outbox event commit together, so the back office sees every accepted
// filing exactly when it is stored.
type SubmissionGateway struct {
	runner tx.Runner
	store  SubmissionSaver
	outbox outbox.Writer
}

func NewSubmissionGateway(runner tx.Runner, store SubmissionSaver, out outbox.Writer) ports.SubmissionPort {
	return &SubmissionGateway{runner: runner, store: store, outbox: out}
}

func (g *SubmissionGateway) Submit(ctx context.Context, sub *models.Submission) (models.Receipt, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("encode submission: %w", err)
	}
	now := requestcontext.Now(ctx)
	err = g.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := g.store.Save(ctx, sub); err != nil {
			return fmt.Errorf("save submission: %w", err)
		}
		entry := outbox.NewEntry("filing", sub.FilingID().String(), EventFilingAccepted, payload, now)
		if err := g.outbox.Append(ctx, entry); err != nil {
			return fmt.Errorf("enqueue submission event: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Receipt{}, err
	}
	return models.Receipt{ID: sub.ID(), SubmittedAt: now}, nil
}
