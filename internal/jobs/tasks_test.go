package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func newTestProcessor() *ReceiptProcessor {
	return NewReceiptProcessor(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil)
}

func TestHandleSaleReceipt(t *testing.T) {
	task, err := NewSaleReceiptTask(ReceiptPayload{
		SaleID:    42,
		UserID:    1,
		Email:     "mila@dulcesmila.cl",
		NetAmount: 1000,
		TaxAmount: 190,
		Total:     1190,
		SoldAt:    time.Now().UTC(),
		LineCount: 2,
	})
	require.NoError(t, err)
	require.Equal(t, TaskTypeSaleReceipt, task.Type())

	require.NoError(t, newTestProcessor().HandleSaleReceipt(context.Background(), task))
}

func TestHandleSaleReceiptMalformedPayload(t *testing.T) {
	task := asynq.NewTask(TaskTypeSaleReceipt, []byte("{not json"))

	err := newTestProcessor().HandleSaleReceipt(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestFormatCLP(t *testing.T) {
	p := newTestProcessor()
	require.Equal(t, "$1.190", p.formatCLP(1190))
	require.Equal(t, "$15.990", p.formatCLP(15990))
	require.Equal(t, "$0", p.formatCLP(0))
}
