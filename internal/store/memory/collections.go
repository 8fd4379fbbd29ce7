package memory

import (
	"context"
	"sync"
	"time"

	"farmstead/internal/core"
	"farmstead/internal/store"
)

// base carries the pieces every collection shares: a lock, the shared
// options, and the monotonic id counter.
type base struct {
	mu      sync.Mutex
	latency time.Duration
	clock   func() time.Time
	nextID  int64
}

func newBase(o options) base {
	return base{latency: o.latency, clock: o.clock}
}

// assignID hands out the next identifier. The counter is seeded lazily
// from the highest existing id and only ever moves forward, so deleting
// the highest-numbered record does not free its id for reuse.
func (b *base) assignID(maxExisting int64) int64 {
	if b.nextID <= maxExisting {
		b.nextID = maxExisting
	}
	b.nextID++
	return b.nextID
}

type farmCollection struct {
	base
	items []core.Farm
}

func (c *farmCollection) List(ctx context.Context) ([]core.Farm, error) {
	if err := wait(ctx, c.latency); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneFarms(c.items), nil
}

func (c *farmCollection) Get(ctx context.Context, id int64) (core.Farm, error) {
	if err := wait(ctx, c.latency); err != nil {
		return core.Farm{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.items {
		if f.ID == id {
			return f, nil
		}
	}
	return core.Farm{}, store.ErrNotFound
}

func (c *farmCollection) Create(ctx context.Context, f core.Farm) (core.Farm, error) {
	if err := wait(ctx, c.latency); err != nil {
		return core.Farm{}, err
	}
	f.CreatedAt = c.clock()
	if err := f.Validate(); err != nil {
		return core.Farm{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var maxID int64
	for _, existing := range c.items {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}
	f.ID = c.assignID(maxID)
	c.items = append(c.items, f)
	return f, nil
}

func (c *farmCollection) Update(ctx context.Context, id int64, p core.FarmPatch) (core.Farm, error) {
	if err := wait(ctx, c.latency); err != nil {
		return core.Farm{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, f := range c.items {
		if f.ID != id {
			continue
		}
		p.Apply(&f)
		if err := f.Validate(); err != nil {
			return core.Farm{}, err
		}
		c.items[i] = f
		return f, nil
	}
	return core.Farm{}, store.ErrNotFound
}

func (c *farmCollection) Delete(ctx context.Context, id int64) error {
	if err := wait(ctx, c.latency); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, f := range c.items {
		if f.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type cropCollection struct {
	base
	items []core.Crop
}

func (c *cropCollection) List(ctx context.Context) ([]core.Crop, error) {
	if err := wait(ctx, c.latency); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneCrops(c.items), nil
}

func (c *cropCollection) Get(ctx context.Context, id int64) (core.Crop, error) {
	if err := wait(ctx, c.latency); err != nil {
		return core.Crop{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, crop := range c.items {
		if crop.ID == id {
			return crop, nil
		}
	}
	return core.Crop{}, store.ErrNotFound
}

func (c *cropCollection) ListByFarm(ctx context.Context, farmID int64) ([]core.Crop, error) {
	if err := wait(ctx, c.latency); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Crop, 0)
	for _, crop := range c.items {
		if crop.FarmID == farmID {
			out = append(out, crop)
		}
	}
	return out, nil
}

func (c *cropCollection) Create(ctx context.Context, crop core.Crop) (core.Crop, error) {
	if err := wait(ctx, c.latency); err != nil {
		return core.Crop{}, err
	}
	if err := crop.Validate(); err != nil {
		return core.Crop{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var maxID int64
	for _, existing := range c.items {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}
	crop.ID = c.assignID(maxID)
	c.items = append(c.items, crop)
	return crop, nil
}

func (c *cropCollection) Update(ctx context.Context, id int64, p core.CropPatch) (core.Crop, error) {
	if err := wait(ctx, c.latency); err != nil {
		return core.Crop{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, crop := range c.items {
		if crop.ID != id {
			continue
		}
		p.Apply(&crop)
		if err := crop.Validate(); err != nil {
			return core.Crop{}, err
		}
		c.items[i] = crop
		return crop, nil
	}
	return core.Crop{}, store.ErrNotFound
}

func (c *cropCollection) Delete(ctx context.Context, id int64) error {
	if err := wait(ctx, c.latency); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, crop := range c.items {
		if crop.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type taskCollection struct {
	base
	items []core.Task
}

func (c *taskCollection) List(ctx context.Context) ([]core.Task, error) {
	if err := wait(ctx, c.latency); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneTasks(c.items), nil
}

func (c *taskCollection) Get(ctx context.Context, id int64) (core.Task, error) {
	if err := wait(ctx, c.latency); err != nil {
		return core.Task{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.items {
		if t.ID == id {
			return copyTask(t), nil
		}
	}
	return core.Task{}, store.ErrNotFound
}

func (c *taskCollection) ListByFarm(ctx context.Context, farmID int64) ([]core.Task, error) {
	if err := wait(ctx, c.latency); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Task, 0)
	for _, t := range c.items {
		if t.FarmID == farmID {
			out = append(out, copyTask(t))
		}
	}
	return out, nil
}

func (c *taskCollection) Create(ctx context.Context, t core.Task) (core.Task, error) {
	if err := wait(ctx, c.latency); err != nil {
		return core.Task{}, err
	}
	// CompletedAt is store-derived; ignore any caller-supplied value.
	t.CompletedAt = nil
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}
	if t.Status == core.TaskCompleted {
		at := c.clock()
		t.CompletedAt = &at
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var maxID int64
	for _, existing := range c.items {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}
	t.ID = c.assignID(maxID)
	c.items = append(c.items, copyTask(t))
	return t, nil
}

func (c *taskCollection) Update(ctx context.Context, id int64, p core.TaskPatch) (core.Task, error) {
	if err := wait(ctx, c.latency); err != nil {
		return core.Task{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.items {
		if t.ID != id {
			continue
		}
		merged := copyTask(t)
		p.Apply(&merged, c.clock())
		if err := merged.Validate(); err != nil {
			return core.Task{}, err
		}
		c.items[i] = merged
		return copyTask(merged), nil
	}
	return core.Task{}, store.ErrNotFound
}

func (c *taskCollection) Delete(ctx context.Context, id int64) error {
	if err := wait(ctx, c.latency); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.items {
		if t.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type transactionCollection struct {
	base
	items []core.Transaction
}

func (c *transactionCollection) List(ctx context.Context) ([]core.Transaction, error) {
	if err := wait(ctx, c.latency); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneTransactions(c.items), nil
}

func (c *transactionCollection) Get(ctx context.Context, id int64) (core.Transaction, error) {
	if err := wait(ctx, c.latency); err != nil {
		return core.Transaction{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tx := range c.items {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

func (c *transactionCollection) ListByFarm(ctx context.Context, farmID int64) ([]core.Transaction, error) {
	if err := wait(ctx, c.latency); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, tx := range c.items {
		if tx.FarmID == farmID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (c *transactionCollection) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := wait(ctx, c.latency); err != nil {
		return core.Transaction{}, err
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var maxID int64
	for _, existing := range c.items {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}
	tx.ID = c.assignID(maxID)
	c.items = append(c.items, tx)
	return tx, nil
}

func (c *transactionCollection) Upsert(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := wait(ctx, c.latency); err != nil {
		return core.Transaction{}, err
	}
	if tx.ID < 1 {
		return core.Transaction{}, core.NewValidationError(map[string]string{"id": "id must be a positive integer"})
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nextID < tx.ID {
		c.nextID = tx.ID
	}
	for i, existing := range c.items {
		if existing.ID == tx.ID {
			c.items[i] = tx
			return tx, nil
		}
	}
	c.items = append(c.items, tx)
	return tx, nil
}

func (c *transactionCollection) Update(ctx context.Context, id int64, p core.TransactionPatch) (core.Transaction, error) {
	if err := wait(ctx, c.latency); err != nil {
		return core.Transaction{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, tx := range c.items {
		if tx.ID != id {
			continue
		}
		p.Apply(&tx)
		if err := tx.Validate(); err != nil {
			return core.Transaction{}, err
		}
		c.items[i] = tx
		return tx, nil
	}
	return core.Transaction{}, store.ErrNotFound
}

func (c *transactionCollection) Delete(ctx context.Context, id int64) error {
	if err := wait(ctx, c.latency); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, tx := range c.items {
		if tx.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
