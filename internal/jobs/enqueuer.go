package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/dulces-mila/mila-backend/internal/sales"
	"github.com/dulces-mila/mila-backend/internal/users"
)

// UserDirectory resolves the recipient for a receipt.
type UserDirectory interface {
	Get(ctx context.Context, id int64) (*users.User, error)
}

// ReceiptEnqueuer submits receipt jobs after a sale commits. It satisfies
// the checkout engine's notifier port.
type ReceiptEnqueuer struct {
	client *asynq.Client
	users  UserDirectory
	logger *slog.Logger
}

// NewReceiptEnqueuer constructs an enqueuer over the given Redis connection.
func NewReceiptEnqueuer(redisOpts asynq.RedisClientOpt, dir UserDirectory, logger *slog.Logger) *ReceiptEnqueuer {
	return &ReceiptEnqueuer{client: asynq.NewClient(redisOpts), users: dir, logger: logger}
}

// SaleRecorded enqueues a receipt task for the committed sale.
func (e *ReceiptEnqueuer) SaleRecorded(ctx context.Context, sale *sales.Sale) error {
	user, err := e.users.Get(ctx, sale.UserID)
	if err != nil {
		return err
	}
	task, err := NewSaleReceiptTask(ReceiptPayload{
		SaleID:    sale.ID,
		UserID:    sale.UserID,
		Email:     user.Email,
		NetAmount: sale.NetAmount,
		TaxAmount: sale.TaxAmount,
		Total:     sale.Total,
		SoldAt:    sale.Date,
		LineCount: len(sale.Lines),
	})
	if err != nil {
		return err
	}
	info, err := e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(5))
	if err != nil {
		return err
	}
	if e.logger != nil {
		e.logger.Debug("receipt enqueued", slog.Int64("sale_id", sale.ID), slog.String("task_id", info.ID))
	}
	return nil
}

// Close releases the underlying client.
func (e *ReceiptEnqueuer) Close() error {
	return e.client.Close()
}
