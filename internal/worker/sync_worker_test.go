package worker

import (
	"context"
	"testing"

	"farmstead/internal/amqp"
	"farmstead/internal/core"
	"farmstead/internal/store"
	"farmstead/internal/store/memory"
)

func change(op amqp.Op, id int64) *amqp.RecordChangeMessage {
	return amqp.NewRecordChangeMessage(amqp.KindTransaction, id, op)
}

func newWorker(t *testing.T) (*SyncWorker, store.Store, store.Store) {
	t.Helper()
	source := memory.New(memory.DefaultSeed())
	target := memory.New(memory.DefaultSeed())
	return NewSyncWorker(source, target), source, target
}

func TestHandleChange_CreateMirrorsRecord(t *testing.T) {
	w, source, target := newWorker(t)
	ctx := context.Background()

	created, err := source.Transactions().Create(ctx, core.Transaction{
		FarmID:      1,
		Type:        core.Expense,
		Category:    core.CategoryEquipment,
		Amount:      core.Money{Cents: 159900},
		Description: "Drip line replacement",
		Date:        core.NewDate(2025, 8, 20),
	})
	if err != nil {
		t.Fatalf("Create on source: %v", err)
	}

	if err := w.HandleChange(ctx, change(amqp.OpCreate, created.ID)); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}

	mirrored, err := target.Transactions().Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get on target: %v", err)
	}
	if mirrored.Amount.Cents != 159900 || mirrored.Description != "Drip line replacement" {
		t.Fatalf("mirrored = %+v", mirrored)
	}
}

func TestHandleChange_UpdateConvergesTarget(t *testing.T) {
	w, source, _ := newWorker(t)
	ctx := context.Background()

	amount := core.Money{Cents: 50000}
	desc := "Adjusted seed order"
	if _, err := source.Transactions().Update(ctx, 1, core.TransactionPatch{
		Amount:      &amount,
		Description: &desc,
	}); err != nil {
		t.Fatalf("Update on source: %v", err)
	}

	if err := w.HandleChange(ctx, change(amqp.OpUpdate, 1)); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}

	mirrored, err := w.target.Transactions().Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get on target: %v", err)
	}
	if mirrored.Amount.Cents != 50000 || mirrored.Description != desc {
		t.Fatalf("mirrored = %+v", mirrored)
	}
}

func TestHandleChange_UpdateCreatesWhenTargetMissing(t *testing.T) {
	w, _, target := newWorker(t)
	ctx := context.Background()

	if err := target.Transactions().Delete(ctx, 3); err != nil {
		t.Fatalf("Delete on target: %v", err)
	}

	if err := w.HandleChange(ctx, change(amqp.OpUpdate, 3)); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}

	if _, err := target.Transactions().Get(ctx, 3); err != nil {
		t.Fatalf("record not recreated on target: %v", err)
	}
}

func TestHandleChange_DeleteRemovesFromTarget(t *testing.T) {
	w, source, target := newWorker(t)
	ctx := context.Background()

	if err := source.Transactions().Delete(ctx, 2); err != nil {
		t.Fatalf("Delete on source: %v", err)
	}
	if err := w.HandleChange(ctx, change(amqp.OpDelete, 2)); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}

	if _, err := target.Transactions().Get(ctx, 2); !store.IsNotFound(err) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestHandleChange_SkipsMissingSourceRecord(t *testing.T) {
	w, _, target := newWorker(t)

	if err := w.HandleChange(context.Background(), change(amqp.OpCreate, 999)); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if _, err := target.Transactions().Get(context.Background(), 999); !store.IsNotFound(err) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestHandleChange_DeleteAlreadyGone(t *testing.T) {
	w, _, _ := newWorker(t)

	if err := w.HandleChange(context.Background(), change(amqp.OpDelete, 999)); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
}

func TestReconcile_ConvergesTarget(t *testing.T) {
	w, source, target := newWorker(t)
	ctx := context.Background()

	// drift: an extra record on the source, a stale one on the target
	extra, err := source.Transactions().Create(ctx, core.Transaction{
		FarmID:      2,
		Type:        core.Income,
		Category:    core.CategoryWineSales,
		Amount:      core.Money{Cents: 45000},
		Description: "Tasting room",
		Date:        core.NewDate(2025, 8, 25),
	})
	if err != nil {
		t.Fatalf("Create on source: %v", err)
	}
	if err := source.Transactions().Delete(ctx, 1); err != nil {
		t.Fatalf("Delete on source: %v", err)
	}
	amount := core.Money{Cents: 99999}
	if _, err := source.Transactions().Update(ctx, 2, core.TransactionPatch{Amount: &amount}); err != nil {
		t.Fatalf("Update on source: %v", err)
	}

	if err := w.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if _, err := target.Transactions().Get(ctx, extra.ID); err != nil {
		t.Errorf("extra record not mirrored: %v", err)
	}
	if _, err := target.Transactions().Get(ctx, 1); !store.IsNotFound(err) {
		t.Errorf("stale record not removed, err = %v", err)
	}
	got, err := target.Transactions().Get(ctx, 2)
	if err != nil {
		t.Fatalf("Get on target: %v", err)
	}
	if got.Amount.Cents != 99999 {
		t.Errorf("amount = %d, want 99999", got.Amount.Cents)
	}
}

// mustCreateTransaction seeds a source-side record and returns it.
func mustCreateTransaction(t *testing.T, s store.Store, desc string) core.Transaction {
	t.Helper()
	tx, err := s.Transactions().Create(context.Background(), core.Transaction{
		FarmID:      1,
		Type:        core.Expense,
		Category:    core.CategorySeeds,
		Amount:      core.Money{Cents: 12500},
		Description: desc,
		Date:        core.NewDate(2025, 8, 18),
	})
	if err != nil {
		t.Fatalf("Create on source: %v", err)
	}
	return tx
}

func TestReconcile_KeepsIDsWhenSequencesDiverge(t *testing.T) {
	ctx := context.Background()
	source := memory.New(memory.Seed{})
	target := memory.New(memory.Seed{})
	w := NewSyncWorker(source, target)

	// Burn through the first two source ids so the surviving record sits
	// at id 3 while the target's own sequence would start fresh at 1.
	mustCreateTransaction(t, source, "Cover crop seed")
	mustCreateTransaction(t, source, "Trellis wire")
	kept := mustCreateTransaction(t, source, "Tomato starts")
	if err := source.Transactions().Delete(ctx, 1); err != nil {
		t.Fatalf("Delete on source: %v", err)
	}
	if err := source.Transactions().Delete(ctx, 2); err != nil {
		t.Fatalf("Delete on source: %v", err)
	}

	for pass := 0; pass < 3; pass++ {
		if err := w.Reconcile(ctx); err != nil {
			t.Fatalf("Reconcile pass %d: %v", pass, err)
		}
		mirrored, err := target.Transactions().Get(ctx, kept.ID)
		if err != nil {
			t.Fatalf("pass %d: record not held under source id %d: %v", pass, kept.ID, err)
		}
		if mirrored.Description != kept.Description {
			t.Fatalf("pass %d: mirrored = %+v", pass, mirrored)
		}
		all, err := target.Transactions().List(ctx)
		if err != nil {
			t.Fatalf("List on target: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("pass %d: target holds %d records, want 1", pass, len(all))
		}
	}
}

func TestHandleChange_UpdateKeepsSourceID(t *testing.T) {
	ctx := context.Background()
	source := memory.New(memory.Seed{})
	target := memory.New(memory.Seed{})
	w := NewSyncWorker(source, target)

	mustCreateTransaction(t, source, "Mulch delivery")
	mustCreateTransaction(t, source, "Fence posts")
	tx := mustCreateTransaction(t, source, "Irrigation filters")
	if err := source.Transactions().Delete(ctx, 1); err != nil {
		t.Fatalf("Delete on source: %v", err)
	}
	if err := source.Transactions().Delete(ctx, 2); err != nil {
		t.Fatalf("Delete on source: %v", err)
	}

	// Two update notifications for the same record must leave the target
	// with exactly one copy, stored under the source's id.
	for i := 0; i < 2; i++ {
		if err := w.HandleChange(ctx, change(amqp.OpUpdate, tx.ID)); err != nil {
			t.Fatalf("HandleChange: %v", err)
		}
	}

	if _, err := target.Transactions().Get(ctx, tx.ID); err != nil {
		t.Fatalf("record not held under source id %d: %v", tx.ID, err)
	}
	all, err := target.Transactions().List(ctx)
	if err != nil {
		t.Fatalf("List on target: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("target holds %d records, want 1", len(all))
	}
}

func TestHandleChange_IgnoresOtherKinds(t *testing.T) {
	w, _, target := newWorker(t)

	msg := amqp.NewRecordChangeMessage(amqp.KindFarm, 1, amqp.OpDelete)
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if _, err := target.Farms().Get(context.Background(), 1); err != nil {
		t.Fatalf("farm should be untouched: %v", err)
	}
}
