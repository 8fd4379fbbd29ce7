// Package services orchestrates record operations that span more than one
// store call: cascade deletes, change-event publication and best-effort
// derived views.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"farmstead/internal/amqp"
	"farmstead/internal/core"
	"farmstead/internal/query"
	"farmstead/internal/store"
)

// RecordChangePublisher publishes change events for mutated records.
// *amqp.Client satisfies it.
type RecordChangePublisher interface {
	PublishRecordChange(ctx context.Context, kind amqp.Kind, id int64, op amqp.Op) error
}

// TransactionService wraps the transaction store and publishes a change
// event after each successful mutation. Publication failures never fail
// the request; the record is already saved locally.
type TransactionService struct {
	store     store.Store
	publisher RecordChangePublisher
}

func NewTransactionService(st store.Store, publisher RecordChangePublisher) *TransactionService {
	return &TransactionService{
		store:     st,
		publisher: publisher,
	}
}

func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	created, err := s.store.Transactions().Create(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.publish(ctx, created.ID, amqp.OpCreate)
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, id int64, p core.TransactionPatch) (core.Transaction, error) {
	updated, err := s.store.Transactions().Update(ctx, id, p)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, id, amqp.OpUpdate)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Transactions().Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, id, amqp.OpDelete)
	return nil
}

func (s *TransactionService) publish(ctx context.Context, id int64, op amqp.Op) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordChange(ctx, amqp.KindTransaction, id, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction change",
			"id", id, "op", string(op), "error", err)
	}
}

// RecentSummary aggregates all transactions. It is best-effort: when the
// store is unreachable it returns the zero summary instead of an error so
// dashboards can still render.
func (s *TransactionService) RecentSummary(ctx context.Context) query.FinancialSummary {
	txs, err := s.store.Transactions().List(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Transaction summary unavailable, returning zero summary", "error", err)
		return query.FinancialSummary{}
	}
	return query.Summarize(txs)
}

// Summary aggregates the transactions of one farm, or of all farms when
// farmID is zero.
func (s *TransactionService) Summary(ctx context.Context, farmID int64) (query.FinancialSummary, error) {
	txs, err := s.list(ctx, farmID)
	if err != nil {
		return query.FinancialSummary{}, err
	}
	return query.Summarize(txs), nil
}

// MonthlySummary aggregates transactions within the calendar month
// containing ref, optionally scoped to one farm.
func (s *TransactionService) MonthlySummary(ctx context.Context, farmID int64, ref time.Time) (query.FinancialSummary, error) {
	txs, err := s.list(ctx, farmID)
	if err != nil {
		return query.FinancialSummary{}, err
	}
	return query.SummarizeMonth(txs, ref), nil
}

func (s *TransactionService) list(ctx context.Context, farmID int64) ([]core.Transaction, error) {
	if farmID > 0 {
		txs, err := s.store.Transactions().ListByFarm(ctx, farmID)
		if err != nil {
			return nil, fmt.Errorf("list transactions for farm %d: %w", farmID, err)
		}
		return txs, nil
	}
	txs, err := s.store.Transactions().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}
