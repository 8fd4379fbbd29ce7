// Package worker mirrors record mutations from the local store to the
// remote record service, driven by AMQP change events.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"farmstead/internal/amqp"
	"farmstead/internal/store"
)

// SyncWorker applies transaction change events against the remote record
// service, using the local store as the source of truth.
type SyncWorker struct {
	source store.Store
	target store.Store
}

func NewSyncWorker(source, target store.Store) *SyncWorker {
	return &SyncWorker{
		source: source,
		target: target,
	}
}

// HandleChange processes a single record change event. A source record
// that no longer exists is skipped, not retried; a later delete event
// covers it.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.RecordChangeMessage) error {
	if msg.Kind != amqp.KindTransaction {
		slog.WarnContext(ctx, "Ignoring change event for unsupported kind",
			"kind", string(msg.Kind), "id", msg.ID)
		return nil
	}

	switch msg.Op {
	case amqp.OpCreate, amqp.OpUpdate:
		return w.mirrorTransaction(ctx, msg.ID)
	case amqp.OpDelete:
		return w.deleteTransaction(ctx, msg.ID)
	default:
		slog.WarnContext(ctx, "Ignoring change event with unknown op",
			"op", string(msg.Op), "id", msg.ID)
		return nil
	}
}

// Reconcile sweeps every source transaction onto the target and removes
// target records whose source record is gone. It covers change events
// lost while the worker was down.
func (w *SyncWorker) Reconcile(ctx context.Context) error {
	src, err := w.source.Transactions().List(ctx)
	if err != nil {
		return fmt.Errorf("list source transactions: %w", err)
	}
	tgt, err := w.target.Transactions().List(ctx)
	if err != nil {
		return fmt.Errorf("list target transactions: %w", err)
	}

	known := make(map[int64]struct{}, len(src))
	for _, tx := range src {
		known[tx.ID] = struct{}{}
		if err := w.mirrorTransaction(ctx, tx.ID); err != nil {
			return err
		}
	}
	for _, tx := range tgt {
		if _, ok := known[tx.ID]; ok {
			continue
		}
		if err := w.deleteTransaction(ctx, tx.ID); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "Reconcile pass complete",
		"source_records", len(src), "target_records", len(tgt))
	return nil
}

// mirrorTransaction copies the source record onto the target under the
// same id. Upsert keeps the identifier stable even when the two stores'
// id sequences have diverged; create-on-target would mint a fresh id and
// the mirror would never converge.
func (w *SyncWorker) mirrorTransaction(ctx context.Context, id int64) error {
	tx, err := w.source.Transactions().Get(ctx, id)
	if store.IsNotFound(err) {
		slog.InfoContext(ctx, "Source transaction gone, skipping sync", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction %d from source: %w", id, err)
	}

	if _, err := w.target.Transactions().Upsert(ctx, tx); err != nil {
		return fmt.Errorf("upsert transaction %d on target: %w", id, err)
	}
	slog.InfoContext(ctx, "Transaction mirrored to target", "id", id)
	return nil
}

func (w *SyncWorker) deleteTransaction(ctx context.Context, id int64) error {
	err := w.target.Transactions().Delete(ctx, id)
	if store.IsNotFound(err) {
		slog.InfoContext(ctx, "Target transaction already gone", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete transaction %d on target: %w", id, err)
	}
	slog.InfoContext(ctx, "Transaction deleted on target", "id", id)
	return nil
}
