package core

import "time"

// Patch types carry partial updates. A nil field is left untouched;
// a non-nil field replaces the stored value (shallow merge).
type (
	FarmPatch struct {
		Name      *string
		Location  *string
		TotalArea *float64
		AreaUnit  *AreaUnit
	}

	CropPatch struct {
		FarmID          *int64
		Name            *string
		Variety         *string
		PlantedDate     *Date
		ExpectedHarvest *Date
		AreaPlanted     *float64
		GrowthStage     *GrowthStage
		Status          *CropStatus
	}

	// TaskPatch follows the shallow-merge rule, except CropID: the crop
	// reference is itself optional on a task, so the patch field carries two
	// levels. An outer nil leaves the reference untouched; a non-nil outer
	// pointing at nil clears it; a non-nil outer pointing at an id sets it.
	TaskPatch struct {
		FarmID      *int64
		CropID      **int64
		Title       *string
		Description *string
		DueDate     *time.Time
		Priority    *TaskPriority
		Status      *TaskStatus
	}

	TransactionPatch struct {
		FarmID      *int64
		Type        *TransactionType
		Category    *TransactionCategory
		Amount      *Money
		Description *string
		Date        *Date
	}
)

func (p FarmPatch) Apply(f *Farm) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Location != nil {
		f.Location = *p.Location
	}
	if p.TotalArea != nil {
		f.TotalArea = *p.TotalArea
	}
	if p.AreaUnit != nil {
		f.AreaUnit = *p.AreaUnit
	}
}

func (p CropPatch) Apply(c *Crop) {
	if p.FarmID != nil {
		c.FarmID = *p.FarmID
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Variety != nil {
		c.Variety = *p.Variety
	}
	if p.PlantedDate != nil {
		c.PlantedDate = *p.PlantedDate
	}
	if p.ExpectedHarvest != nil {
		c.ExpectedHarvest = *p.ExpectedHarvest
	}
	if p.AreaPlanted != nil {
		c.AreaPlanted = *p.AreaPlanted
	}
	if p.GrowthStage != nil {
		c.GrowthStage = *p.GrowthStage
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
}

// Apply merges the patch into t. CompletedAt is derived, never supplied by
// the caller: the first transition into Completed stamps it with now, and
// later updates leave it untouched.
func (p TaskPatch) Apply(t *Task, now time.Time) {
	if p.FarmID != nil {
		t.FarmID = *p.FarmID
	}
	if p.CropID != nil {
		if ref := *p.CropID; ref != nil {
			id := *ref
			t.CropID = &id
		} else {
			t.CropID = nil
		}
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
		if *p.Status == TaskCompleted && t.CompletedAt == nil {
			stamped := now
			t.CompletedAt = &stamped
		}
	}
}

func (p TransactionPatch) Apply(tx *Transaction) {
	if p.FarmID != nil {
		tx.FarmID = *p.FarmID
	}
	if p.Type != nil {
		tx.Type = *p.Type
	}
	if p.Category != nil {
		tx.Category = *p.Category
	}
	if p.Amount != nil {
		tx.Amount = *p.Amount
	}
	if p.Description != nil {
		tx.Description = *p.Description
	}
	if p.Date != nil {
		tx.Date = *p.Date
	}
}
