// Package storage is the SQLite record store. Partial updates are applied
// as a read-modify-write inside a transaction so the merge and
// completedAt rules live in one place (the core patch types), and
// AUTOINCREMENT keys give the monotonic-identifier guarantee directly.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"farmstead/internal/core"
	"farmstead/internal/store"

	_ "modernc.org/sqlite"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339Nano
)

type SQLiteRepository struct {
	db    *sql.DB
	clock func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, clock: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SetClock overrides the time source used for createdAt/completedAt stamps.
func (r *SQLiteRepository) SetClock(clock func() time.Time) {
	r.clock = clock
}

func (r *SQLiteRepository) Farms() store.Farms               { return farmRepo{r} }
func (r *SQLiteRepository) Crops() store.Crops               { return cropRepo{r} }
func (r *SQLiteRepository) Tasks() store.Tasks               { return taskRepo{r} }
func (r *SQLiteRepository) Transactions() store.Transactions { return transactionRepo{r} }

func mapRowErr(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// deleteByID runs a delete and translates zero affected rows to NotFound.
func (r *SQLiteRepository) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	slog.DebugContext(ctx, "Record deleted", "table", table, "id", id)
	return nil
}

type farmRepo struct{ r *SQLiteRepository }

const farmCols = "id, name, location, total_area, area_unit, created_at"

func scanFarm(row interface{ Scan(...any) error }) (core.Farm, error) {
	var f core.Farm
	var unit, createdAt string
	if err := row.Scan(&f.ID, &f.Name, &f.Location, &f.TotalArea, &unit, &createdAt); err != nil {
		return core.Farm{}, err
	}
	f.AreaUnit = core.AreaUnit(unit)
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return core.Farm{}, fmt.Errorf("parse created_at: %w", err)
	}
	f.CreatedAt = t
	return f, nil
}

func (fr farmRepo) List(ctx context.Context) ([]core.Farm, error) {
	rows, err := fr.r.db.QueryContext(ctx, "SELECT "+farmCols+" FROM farms ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list farms: %w", err)
	}
	defer rows.Close()
	out := make([]core.Farm, 0)
	for rows.Next() {
		f, err := scanFarm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan farm: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (fr farmRepo) Get(ctx context.Context, id int64) (core.Farm, error) {
	row := fr.r.db.QueryRowContext(ctx, "SELECT "+farmCols+" FROM farms WHERE id = ?", id)
	f, err := scanFarm(row)
	if err != nil {
		return core.Farm{}, mapRowErr(err, "get farm")
	}
	return f, nil
}

func (fr farmRepo) Create(ctx context.Context, f core.Farm) (core.Farm, error) {
	f.CreatedAt = fr.r.clock()
	if err := f.Validate(); err != nil {
		return core.Farm{}, err
	}
	res, err := fr.r.db.ExecContext(ctx,
		"INSERT INTO farms (name, location, total_area, area_unit, created_at) VALUES (?, ?, ?, ?, ?)",
		f.Name, f.Location, f.TotalArea, string(f.AreaUnit), f.CreatedAt.Format(timeLayout))
	if err != nil {
		return core.Farm{}, fmt.Errorf("create farm: %w", err)
	}
	f.ID, err = res.LastInsertId()
	if err != nil {
		return core.Farm{}, fmt.Errorf("create farm: %w", err)
	}
	slog.InfoContext(ctx, "Farm created", "id", f.ID, "name", f.Name)
	return f, nil
}

func (fr farmRepo) Update(ctx context.Context, id int64, p core.FarmPatch) (core.Farm, error) {
	var out core.Farm
	err := fr.r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+farmCols+" FROM farms WHERE id = ?", id)
		f, err := scanFarm(row)
		if err != nil {
			return mapRowErr(err, "get farm")
		}
		p.Apply(&f)
		if err := f.Validate(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE farms SET name = ?, location = ?, total_area = ?, area_unit = ? WHERE id = ?",
			f.Name, f.Location, f.TotalArea, string(f.AreaUnit), id)
		if err != nil {
			return fmt.Errorf("update farm: %w", err)
		}
		out = f
		return nil
	})
	return out, err
}

func (fr farmRepo) Delete(ctx context.Context, id int64) error {
	return fr.r.deleteByID(ctx, "farms", id)
}

type cropRepo struct{ r *SQLiteRepository }

const cropCols = "id, farm_id, name, variety, planted_date, expected_harvest, area_planted, growth_stage, status"

func scanCrop(row interface{ Scan(...any) error }) (core.Crop, error) {
	var c core.Crop
	var planted, harvest, stage, status string
	if err := row.Scan(&c.ID, &c.FarmID, &c.Name, &c.Variety, &planted, &harvest, &c.AreaPlanted, &stage, &status); err != nil {
		return core.Crop{}, err
	}
	var err error
	if c.PlantedDate, err = parseDate(planted); err != nil {
		return core.Crop{}, fmt.Errorf("parse planted_date: %w", err)
	}
	if c.ExpectedHarvest, err = parseDate(harvest); err != nil {
		return core.Crop{}, fmt.Errorf("parse expected_harvest: %w", err)
	}
	c.GrowthStage = core.GrowthStage(stage)
	c.Status = core.CropStatus(status)
	return c, nil
}

func (cr cropRepo) List(ctx context.Context) ([]core.Crop, error) {
	return cr.query(ctx, "SELECT "+cropCols+" FROM crops ORDER BY id")
}

func (cr cropRepo) ListByFarm(ctx context.Context, farmID int64) ([]core.Crop, error) {
	return cr.query(ctx, "SELECT "+cropCols+" FROM crops WHERE farm_id = ? ORDER BY id", farmID)
}

func (cr cropRepo) query(ctx context.Context, q string, args ...any) ([]core.Crop, error) {
	rows, err := cr.r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list crops: %w", err)
	}
	defer rows.Close()
	out := make([]core.Crop, 0)
	for rows.Next() {
		c, err := scanCrop(rows)
		if err != nil {
			return nil, fmt.Errorf("scan crop: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (cr cropRepo) Get(ctx context.Context, id int64) (core.Crop, error) {
	row := cr.r.db.QueryRowContext(ctx, "SELECT "+cropCols+" FROM crops WHERE id = ?", id)
	c, err := scanCrop(row)
	if err != nil {
		return core.Crop{}, mapRowErr(err, "get crop")
	}
	return c, nil
}

func (cr cropRepo) Create(ctx context.Context, c core.Crop) (core.Crop, error) {
	if err := c.Validate(); err != nil {
		return core.Crop{}, err
	}
	res, err := cr.r.db.ExecContext(ctx,
		"INSERT INTO crops (farm_id, name, variety, planted_date, expected_harvest, area_planted, growth_stage, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		c.FarmID, c.Name, c.Variety, c.PlantedDate.Format(dateLayout), c.ExpectedHarvest.Format(dateLayout),
		c.AreaPlanted, string(c.GrowthStage), string(c.Status))
	if err != nil {
		return core.Crop{}, fmt.Errorf("create crop: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Crop{}, fmt.Errorf("create crop: %w", err)
	}
	slog.InfoContext(ctx, "Crop created", "id", c.ID, "farm_id", c.FarmID, "name", c.Name)
	return c, nil
}

func (cr cropRepo) Update(ctx context.Context, id int64, p core.CropPatch) (core.Crop, error) {
	var out core.Crop
	err := cr.r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+cropCols+" FROM crops WHERE id = ?", id)
		c, err := scanCrop(row)
		if err != nil {
			return mapRowErr(err, "get crop")
		}
		p.Apply(&c)
		if err := c.Validate(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE crops SET farm_id = ?, name = ?, variety = ?, planted_date = ?, expected_harvest = ?, area_planted = ?, growth_stage = ?, status = ? WHERE id = ?",
			c.FarmID, c.Name, c.Variety, c.PlantedDate.Format(dateLayout), c.ExpectedHarvest.Format(dateLayout),
			c.AreaPlanted, string(c.GrowthStage), string(c.Status), id)
		if err != nil {
			return fmt.Errorf("update crop: %w", err)
		}
		out = c
		return nil
	})
	return out, err
}

func (cr cropRepo) Delete(ctx context.Context, id int64) error {
	return cr.r.deleteByID(ctx, "crops", id)
}

type taskRepo struct{ r *SQLiteRepository }

const taskCols = "id, farm_id, crop_id, title, description, due_date, priority, status, completed_at"

func scanTask(row interface{ Scan(...any) error }) (core.Task, error) {
	var t core.Task
	var cropID sql.NullInt64
	var due, priority, status string
	var completedAt sql.NullString
	if err := row.Scan(&t.ID, &t.FarmID, &cropID, &t.Title, &t.Description, &due, &priority, &status, &completedAt); err != nil {
		return core.Task{}, err
	}
	if cropID.Valid {
		t.CropID = &cropID.Int64
	}
	parsed, err := time.Parse(timeLayout, due)
	if err != nil {
		return core.Task{}, fmt.Errorf("parse due_date: %w", err)
	}
	t.DueDate = parsed
	t.Priority = core.TaskPriority(priority)
	t.Status = core.TaskStatus(status)
	if completedAt.Valid {
		at, err := time.Parse(timeLayout, completedAt.String)
		if err != nil {
			return core.Task{}, fmt.Errorf("parse completed_at: %w", err)
		}
		t.CompletedAt = &at
	}
	return t, nil
}

func (tr taskRepo) List(ctx context.Context) ([]core.Task, error) {
	return tr.query(ctx, "SELECT "+taskCols+" FROM tasks ORDER BY id")
}

func (tr taskRepo) ListByFarm(ctx context.Context, farmID int64) ([]core.Task, error) {
	return tr.query(ctx, "SELECT "+taskCols+" FROM tasks WHERE farm_id = ? ORDER BY id", farmID)
}

func (tr taskRepo) query(ctx context.Context, q string, args ...any) ([]core.Task, error) {
	rows, err := tr.r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	out := make([]core.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (tr taskRepo) Get(ctx context.Context, id int64) (core.Task, error) {
	row := tr.r.db.QueryRowContext(ctx, "SELECT "+taskCols+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if err != nil {
		return core.Task{}, mapRowErr(err, "get task")
	}
	return t, nil
}

func (tr taskRepo) Create(ctx context.Context, t core.Task) (core.Task, error) {
	t.CompletedAt = nil
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}
	if t.Status == core.TaskCompleted {
		at := tr.r.clock()
		t.CompletedAt = &at
	}
	var cropID any
	if t.CropID != nil {
		cropID = *t.CropID
	}
	var completedAt any
	if t.CompletedAt != nil {
		completedAt = t.CompletedAt.Format(timeLayout)
	}
	res, err := tr.r.db.ExecContext(ctx,
		"INSERT INTO tasks (farm_id, crop_id, title, description, due_date, priority, status, completed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		t.FarmID, cropID, t.Title, t.Description, t.DueDate.Format(timeLayout),
		string(t.Priority), string(t.Status), completedAt)
	if err != nil {
		return core.Task{}, fmt.Errorf("create task: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return core.Task{}, fmt.Errorf("create task: %w", err)
	}
	slog.InfoContext(ctx, "Task created", "id", t.ID, "farm_id", t.FarmID, "title", t.Title)
	return t, nil
}

func (tr taskRepo) Update(ctx context.Context, id int64, p core.TaskPatch) (core.Task, error) {
	var out core.Task
	err := tr.r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+taskCols+" FROM tasks WHERE id = ?", id)
		t, err := scanTask(row)
		if err != nil {
			return mapRowErr(err, "get task")
		}
		p.Apply(&t, tr.r.clock())
		if err := t.Validate(); err != nil {
			return err
		}
		var cropID any
		if t.CropID != nil {
			cropID = *t.CropID
		}
		var completedAt any
		if t.CompletedAt != nil {
			completedAt = t.CompletedAt.Format(timeLayout)
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE tasks SET farm_id = ?, crop_id = ?, title = ?, description = ?, due_date = ?, priority = ?, status = ?, completed_at = ? WHERE id = ?",
			t.FarmID, cropID, t.Title, t.Description, t.DueDate.Format(timeLayout),
			string(t.Priority), string(t.Status), completedAt, id)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		out = t
		return nil
	})
	return out, err
}

func (tr taskRepo) Delete(ctx context.Context, id int64) error {
	return tr.r.deleteByID(ctx, "tasks", id)
}

type transactionRepo struct{ r *SQLiteRepository }

const transactionCols = "id, farm_id, type, category, amount_cents, description, date"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var tx core.Transaction
	var typ, category, date string
	if err := row.Scan(&tx.ID, &tx.FarmID, &typ, &category, &tx.Amount.Cents, &tx.Description, &date); err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	tx.Category = core.TransactionCategory(category)
	var err error
	if tx.Date, err = parseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse date: %w", err)
	}
	return tx, nil
}

func (xr transactionRepo) List(ctx context.Context) ([]core.Transaction, error) {
	return xr.query(ctx, "SELECT "+transactionCols+" FROM transactions ORDER BY id")
}

func (xr transactionRepo) ListByFarm(ctx context.Context, farmID int64) ([]core.Transaction, error) {
	return xr.query(ctx, "SELECT "+transactionCols+" FROM transactions WHERE farm_id = ? ORDER BY id", farmID)
}

func (xr transactionRepo) query(ctx context.Context, q string, args ...any) ([]core.Transaction, error) {
	rows, err := xr.r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (xr transactionRepo) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row := xr.r.db.QueryRowContext(ctx, "SELECT "+transactionCols+" FROM transactions WHERE id = ?", id)
	tx, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, mapRowErr(err, "get transaction")
	}
	return tx, nil
}

func (xr transactionRepo) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	res, err := xr.r.db.ExecContext(ctx,
		"INSERT INTO transactions (farm_id, type, category, amount_cents, description, date) VALUES (?, ?, ?, ?, ?, ?)",
		tx.FarmID, string(tx.Type), string(tx.Category), tx.Amount.Cents, tx.Description, tx.Date.Format(dateLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	tx.ID, err = res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction created",
		"id", tx.ID,
		"farm_id", tx.FarmID,
		"type", string(tx.Type),
		"amount_cents", tx.Amount.Cents)
	return tx, nil
}

func (xr transactionRepo) Upsert(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID < 1 {
		return core.Transaction{}, core.NewValidationError(map[string]string{"id": "id must be a positive integer"})
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	_, err := xr.r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, farm_id, type, category, amount_cents, description, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 farm_id = excluded.farm_id, type = excluded.type, category = excluded.category,
		 amount_cents = excluded.amount_cents, description = excluded.description, date = excluded.date`,
		tx.ID, tx.FarmID, string(tx.Type), string(tx.Category), tx.Amount.Cents, tx.Description, tx.Date.Format(dateLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("upsert transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction upserted", "id", tx.ID, "farm_id", tx.FarmID)
	return tx, nil
}

func (xr transactionRepo) Update(ctx context.Context, id int64, p core.TransactionPatch) (core.Transaction, error) {
	var out core.Transaction
	err := xr.r.withTx(ctx, func(sqlTx *sql.Tx) error {
		row := sqlTx.QueryRowContext(ctx, "SELECT "+transactionCols+" FROM transactions WHERE id = ?", id)
		tx, err := scanTransaction(row)
		if err != nil {
			return mapRowErr(err, "get transaction")
		}
		p.Apply(&tx)
		if err := tx.Validate(); err != nil {
			return err
		}
		_, err = sqlTx.ExecContext(ctx,
			"UPDATE transactions SET farm_id = ?, type = ?, category = ?, amount_cents = ?, description = ?, date = ? WHERE id = ?",
			tx.FarmID, string(tx.Type), string(tx.Category), tx.Amount.Cents, tx.Description, tx.Date.Format(dateLayout), id)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		out = tx
		return nil
	})
	return out, err
}

func (xr transactionRepo) Delete(ctx context.Context, id int64) error {
	return xr.r.deleteByID(ctx, "transactions", id)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: t}, nil
}
