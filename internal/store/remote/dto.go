package remote

import (
	"time"

	"farmstead/internal/core"
)

// The record API speaks snake_case; the DTOs here are the translation
// layer between that wire shape and the camelCase domain records.
// Patch bodies are built as maps so absent fields stay absent, which is
// what gives PATCH its merge semantics on the server side.

type farmDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	TotalArea float64   `json:"total_area"`
	AreaUnit  string    `json:"area_unit"`
	CreatedAt time.Time `json:"created_at"`
}

func (d farmDTO) toCore() core.Farm {
	return core.Farm{
		ID:        d.ID,
		Name:      d.Name,
		Location:  d.Location,
		TotalArea: d.TotalArea,
		AreaUnit:  core.AreaUnit(d.AreaUnit),
		CreatedAt: d.CreatedAt,
	}
}

func farmToDTO(f core.Farm) farmDTO {
	return farmDTO{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		TotalArea: f.TotalArea,
		AreaUnit:  string(f.AreaUnit),
		CreatedAt: f.CreatedAt,
	}
}

func farmPatchBody(p core.FarmPatch) map[string]any {
	body := map[string]any{}
	if p.Name != nil {
		body["name"] = *p.Name
	}
	if p.Location != nil {
		body["location"] = *p.Location
	}
	if p.TotalArea != nil {
		body["total_area"] = *p.TotalArea
	}
	if p.AreaUnit != nil {
		body["area_unit"] = string(*p.AreaUnit)
	}
	return body
}

type cropDTO struct {
	ID              int64     `json:"id"`
	FarmID          int64     `json:"farm_id"`
	Name            string    `json:"name"`
	Variety         string    `json:"variety"`
	PlantedDate     core.Date `json:"planted_date"`
	ExpectedHarvest core.Date `json:"expected_harvest"`
	AreaPlanted     float64   `json:"area_planted"`
	GrowthStage     string    `json:"growth_stage"`
	Status          string    `json:"status"`
}

func (d cropDTO) toCore() core.Crop {
	return core.Crop{
		ID:              d.ID,
		FarmID:          d.FarmID,
		Name:            d.Name,
		Variety:         d.Variety,
		PlantedDate:     d.PlantedDate,
		ExpectedHarvest: d.ExpectedHarvest,
		AreaPlanted:     d.AreaPlanted,
		GrowthStage:     core.GrowthStage(d.GrowthStage),
		Status:          core.CropStatus(d.Status),
	}
}

func cropToDTO(c core.Crop) cropDTO {
	return cropDTO{
		ID:              c.ID,
		FarmID:          c.FarmID,
		Name:            c.Name,
		Variety:         c.Variety,
		PlantedDate:     c.PlantedDate,
		ExpectedHarvest: c.ExpectedHarvest,
		AreaPlanted:     c.AreaPlanted,
		GrowthStage:     string(c.GrowthStage),
		Status:          string(c.Status),
	}
}

func cropPatchBody(p core.CropPatch) map[string]any {
	body := map[string]any{}
	if p.FarmID != nil {
		body["farm_id"] = *p.FarmID
	}
	if p.Name != nil {
		body["name"] = *p.Name
	}
	if p.Variety != nil {
		body["variety"] = *p.Variety
	}
	if p.PlantedDate != nil {
		body["planted_date"] = *p.PlantedDate
	}
	if p.ExpectedHarvest != nil {
		body["expected_harvest"] = *p.ExpectedHarvest
	}
	if p.AreaPlanted != nil {
		body["area_planted"] = *p.AreaPlanted
	}
	if p.GrowthStage != nil {
		body["growth_stage"] = string(*p.GrowthStage)
	}
	if p.Status != nil {
		body["status"] = string(*p.Status)
	}
	return body
}

type taskDTO struct {
	ID          int64      `json:"id"`
	FarmID      int64      `json:"farm_id"`
	CropID      *int64     `json:"crop_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     time.Time  `json:"due_date"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (d taskDTO) toCore() core.Task {
	return core.Task{
		ID:          d.ID,
		FarmID:      d.FarmID,
		CropID:      d.CropID,
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate,
		Priority:    core.TaskPriority(d.Priority),
		Status:      core.TaskStatus(d.Status),
		CompletedAt: d.CompletedAt,
	}
}

func taskToDTO(t core.Task) taskDTO {
	return taskDTO{
		ID:          t.ID,
		FarmID:      t.FarmID,
		CropID:      t.CropID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		CompletedAt: t.CompletedAt,
	}
}

func taskPatchBody(p core.TaskPatch) map[string]any {
	body := map[string]any{}
	if p.FarmID != nil {
		body["farm_id"] = *p.FarmID
	}
	if p.CropID != nil {
		// A nil inner pointer marshals as an explicit null, which the
		// server reads as "clear the crop reference".
		body["crop_id"] = *p.CropID
	}
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.DueDate != nil {
		body["due_date"] = *p.DueDate
	}
	if p.Priority != nil {
		body["priority"] = string(*p.Priority)
	}
	if p.Status != nil {
		body["status"] = string(*p.Status)
	}
	return body
}

type transactionDTO struct {
	ID          int64      `json:"id"`
	FarmID      int64      `json:"farm_id"`
	Type        string     `json:"type"`
	Category    string     `json:"category"`
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
	Date        core.Date  `json:"date"`
}

func (d transactionDTO) toCore() core.Transaction {
	return core.Transaction{
		ID:          d.ID,
		FarmID:      d.FarmID,
		Type:        core.TransactionType(d.Type),
		Category:    core.TransactionCategory(d.Category),
		Amount:      d.Amount,
		Description: d.Description,
		Date:        d.Date,
	}
}

func transactionToDTO(tx core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          tx.ID,
		FarmID:      tx.FarmID,
		Type:        string(tx.Type),
		Category:    string(tx.Category),
		Amount:      tx.Amount,
		Description: tx.Description,
		Date:        tx.Date,
	}
}

func transactionPatchBody(p core.TransactionPatch) map[string]any {
	body := map[string]any{}
	if p.FarmID != nil {
		body["farm_id"] = *p.FarmID
	}
	if p.Type != nil {
		body["type"] = string(*p.Type)
	}
	if p.Category != nil {
		body["category"] = string(*p.Category)
	}
	if p.Amount != nil {
		body["amount"] = *p.Amount
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.Date != nil {
		body["date"] = *p.Date
	}
	return body
}
