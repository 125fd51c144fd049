// Package jobs runs background work over Asynq, currently receipt
// delivery for completed sales.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dulces-mila/mila-backend/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSaleReceipt is the task type for issuing a sale receipt.
	TaskTypeSaleReceipt = "sale:receipt"
)

// ReceiptPayload carries everything the receipt job needs; the sale row is
// not re-read so the job survives later catalog changes.
type ReceiptPayload struct {
	SaleID    int64     `json:"saleId"`
	UserID    int64     `json:"userId"`
	Email     string    `json:"email"`
	NetAmount int64     `json:"montoNeto"`
	TaxAmount int64     `json:"montoIva"`
	Total     int64     `json:"total"`
	SoldAt    time.Time `json:"soldAt"`
	LineCount int       `json:"lineCount"`
}

// NewSaleReceiptTask constructs an Asynq task for the payload.
func NewSaleReceiptTask(payload ReceiptPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSaleReceipt, data), nil
}

// ReceiptProcessor handles sale receipt tasks on the worker side.
type ReceiptProcessor struct {
	logger  *slog.Logger
	audit   *shared.AuditLogger
	metrics *Metrics
	printer *message.Printer
}

// NewReceiptProcessor builds a processor. audit and metrics may be nil.
func NewReceiptProcessor(logger *slog.Logger, audit *shared.AuditLogger, metrics *Metrics) *ReceiptProcessor {
	return &ReceiptProcessor{
		logger:  logger,
		audit:   audit,
		metrics: metrics,
		printer: message.NewPrinter(language.MustParse("es-CL")),
	}
}

// HandleSaleReceipt processes TaskTypeSaleReceipt tasks. Malformed payloads
// are dropped instead of retried.
func (p *ReceiptProcessor) HandleSaleReceipt(ctx context.Context, t *asynq.Task) error {
	tracker := p.metrics.Track("sale_receipt")

	var payload ReceiptPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}

	// Placeholder delivery channel: the receipt is logged until an SMTP
	// provider is configured.
	p.logger.Info("receipt issued",
		slog.Int64("sale_id", payload.SaleID),
		slog.String("email", payload.Email),
		slog.String("neto", p.formatCLP(payload.NetAmount)),
		slog.String("iva", p.formatCLP(payload.TaxAmount)),
		slog.String("total", p.formatCLP(payload.Total)),
		slog.Int("lines", payload.LineCount),
	)

	if p.audit != nil {
		if err := p.audit.Record(ctx, shared.AuditLog{
			ActorID:  payload.UserID,
			Action:   "receipt.issued",
			Entity:   "sale",
			EntityID: strconv.FormatInt(payload.SaleID, 10),
			Meta:     map[string]any{"total": payload.Total, "email": payload.Email},
		}); err != nil {
			return tracker.End(err)
		}
	}
	return tracker.End(nil)
}

// formatCLP renders an amount the way Chilean receipts print it, e.g.
// "$1.190" for 1190 pesos.
func (p *ReceiptProcessor) formatCLP(amount int64) string {
	return p.printer.Sprintf("$%d", amount)
}
