// Package jobs runs background work through a river job queue. The only job
// today is message delivery fan-out: sending a message enqueues a delivery
// job and the worker marks the row delivered out of band.
package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/playkit/player"
)

// Enqueuer is the slice of the river client the handlers need. It keeps the
// queue out of handler tests; a nil Enqueuer means delivery is skipped.
type Enqueuer interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// MessageDeliverArgs identifies the message to deliver.
type MessageDeliverArgs struct {
	MessageID uuid.UUID `json:"message_id"`
}

func (MessageDeliverArgs) Kind() string { return "message_deliver" }

// MessageDeliverWorker marks a sent message as delivered. Real delivery
// transports (push, email) would hang off this worker.
type MessageDeliverWorker struct {
	river.WorkerDefaults[MessageDeliverArgs]

	Store player.Store
	Log   *logrus.Logger
}

func (w *MessageDeliverWorker) Work(ctx context.Context, job *river.Job[MessageDeliverArgs]) error {
	if err := w.Store.MarkDelivered(ctx, job.Args.MessageID, time.Now()); err != nil {
		return err
	}
	if w.Log != nil {
		w.Log.WithField("message_id", job.Args.MessageID).Info("message delivered")
	}
	return nil
}

// NewClient builds a river client with the delivery worker registered.
// Callers start it with Start and stop it on shutdown.
func NewClient(pool *pgxpool.Pool, store player.Store, log *logrus.Logger) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, &MessageDeliverWorker{Store: store, Log: log})
	return river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
}
