package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"farmstead/internal/core"
	"farmstead/internal/store"
)

var repoNow = time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "farmstead.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	repo.SetClock(func() time.Time { return repoNow })
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLite_FarmRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Farms().Create(ctx, core.Farm{
		Name:      "Sunrise Valley",
		Location:  "Willamette Valley, OR",
		TotalArea: 120,
		AreaUnit:  core.Acres,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("id = %d, want 1", created.ID)
	}
	if !created.CreatedAt.Equal(repoNow) {
		t.Fatalf("createdAt = %v, want %v", created.CreatedAt, repoNow)
	}

	got, err := repo.Farms().Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Sunrise Valley" || got.AreaUnit != core.Acres {
		t.Fatalf("got = %+v", got)
	}

	loc := "Salem, OR"
	updated, err := repo.Farms().Update(ctx, created.ID, core.FarmPatch{Location: &loc})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Location != loc || updated.Name != "Sunrise Valley" {
		t.Fatalf("updated = %+v", updated)
	}

	if err := repo.Farms().Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Farms().Get(ctx, created.ID); !store.IsNotFound(err) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLite_IDNotReissuedAfterDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.Farms().Create(ctx, core.Farm{Name: "A", Location: "x", TotalArea: 1, AreaUnit: core.Acres})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Farms().Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	second, err := repo.Farms().Create(ctx, core.Farm{Name: "B", Location: "y", TotalArea: 2, AreaUnit: core.Acres})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("id %d reissued after deleting %d", second.ID, first.ID)
	}
}

func TestSQLite_TaskCompletedAtStamp(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Tasks().Create(ctx, core.Task{
		FarmID:   1,
		Title:    "Irrigate",
		DueDate:  time.Date(2025, 9, 1, 7, 0, 0, 0, time.UTC),
		Priority: core.PriorityHigh,
		Status:   core.TaskPending,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.CompletedAt != nil {
		t.Fatalf("pending task has completedAt %v", created.CompletedAt)
	}

	status := core.TaskCompleted
	done, err := repo.Tasks().Update(ctx, created.ID, core.TaskPatch{Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(repoNow) {
		t.Fatalf("completedAt = %v, want %v", done.CompletedAt, repoNow)
	}

	// a second completed update keeps the original stamp
	again, err := repo.Tasks().Update(ctx, created.ID, core.TaskPatch{Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !again.CompletedAt.Equal(*done.CompletedAt) {
		t.Fatalf("completedAt moved: %v -> %v", done.CompletedAt, again.CompletedAt)
	}
}

func TestSQLite_TransactionsByFarm(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for farmID := int64(1); farmID <= 2; farmID++ {
		_, err := repo.Transactions().Create(ctx, core.Transaction{
			FarmID:      farmID,
			Type:        core.Expense,
			Category:    core.CategorySeeds,
			Amount:      core.Money{Cents: 1000 * farmID},
			Description: "seeds",
			Date:        core.NewDate(2025, 8, 20),
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	txs, err := repo.Transactions().ListByFarm(ctx, 2)
	if err != nil {
		t.Fatalf("ListByFarm: %v", err)
	}
	if len(txs) != 1 || txs[0].Amount.Cents != 2000 {
		t.Fatalf("txs = %+v", txs)
	}

	none, err := repo.Transactions().ListByFarm(ctx, 42)
	if err != nil {
		t.Fatalf("ListByFarm: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("unknown farm txs = %d, want 0", len(none))
	}
}

func TestSQLite_TransactionUpsertKeepsCallerID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tx := core.Transaction{
		ID:          40,
		FarmID:      1,
		Type:        core.Expense,
		Category:    core.CategoryUtilities,
		Amount:      core.Money{Cents: 8200},
		Description: "Well pump electricity",
		Date:        core.NewDate(2025, 8, 22),
	}
	stored, err := repo.Transactions().Upsert(ctx, tx)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if stored.ID != 40 {
		t.Fatalf("id = %d, want 40", stored.ID)
	}

	tx.Amount = core.Money{Cents: 9000}
	if _, err := repo.Transactions().Upsert(ctx, tx); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	got, err := repo.Transactions().Get(ctx, 40)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Amount.Cents != 9000 {
		t.Fatalf("amount = %d, want 9000", got.Amount.Cents)
	}
	all, err := repo.Transactions().List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("rows = %d, want 1", len(all))
	}

	// AUTOINCREMENT advances past explicit ids, so a later create cannot
	// collide with an upserted row.
	created, err := repo.Transactions().Create(ctx, core.Transaction{
		FarmID:      1,
		Type:        core.Expense,
		Category:    core.CategoryOther,
		Amount:      core.Money{Cents: 100},
		Description: "Twine",
		Date:        core.NewDate(2025, 8, 23),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID <= 40 {
		t.Fatalf("create issued id %d, want > 40", created.ID)
	}
}

func TestSQLite_CreateValidates(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Farms().Create(context.Background(), core.Farm{Name: ""})
	if !store.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
}
