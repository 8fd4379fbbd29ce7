package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"farmstead/internal/core"
	"farmstead/internal/query"
)

// pathID extracts the {id} path segment as an int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, core.NewValidationError(map[string]string{"id": "must be a positive integer"})
	}
	return id, nil
}

// constraints builds filter constraints from the listed query parameters.
// Absent and empty parameters impose no constraint.
func constraints(r *http.Request, keys ...string) query.Constraints {
	c := make(query.Constraints)
	q := r.URL.Query()
	for _, key := range keys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			c[key] = v
		}
	}
	return c
}

// parseYearMonth extracts year and month from query parameters, defaulting
// to the given reference time.
func parseYearMonth(r *http.Request, ref time.Time) time.Time {
	year := ref.Year()
	month := int(ref.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}

	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// parseFarmID reads an optional farmId query parameter. Zero means
// no farm scope.
func parseFarmID(r *http.Request) int64 {
	v := strings.TrimSpace(r.URL.Query().Get("farmId"))
	if v == "" {
		return 0
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 1 {
		return 0
	}
	return id
}

// optionalID is a nullable id field that records whether the key was
// present at all. A missing key leaves set false; an explicit JSON null
// sets set with a nil value, which is how a reference gets cleared.
type optionalID struct {
	set   bool
	value *int64
}

func (o *optionalID) UnmarshalJSON(data []byte) error {
	o.set = true
	if string(data) == "null" {
		o.value = nil
		return nil
	}
	return json.Unmarshal(data, &o.value)
}

// Patch request bodies. Pointer fields distinguish "absent" from
// "set to zero value".
type (
	farmPatchRequest struct {
		Name      *string        `json:"name"`
		Location  *string        `json:"location"`
		TotalArea *float64       `json:"totalArea"`
		AreaUnit  *core.AreaUnit `json:"areaUnit"`
	}

	cropPatchRequest struct {
		FarmID          *int64            `json:"farmId"`
		Name            *string           `json:"name"`
		Variety         *string           `json:"variety"`
		PlantedDate     *core.Date        `json:"plantedDate"`
		ExpectedHarvest *core.Date        `json:"expectedHarvest"`
		AreaPlanted     *float64          `json:"areaPlanted"`
		GrowthStage     *core.GrowthStage `json:"growthStage"`
		Status          *core.CropStatus  `json:"status"`
	}

	taskPatchRequest struct {
		FarmID      *int64             `json:"farmId"`
		CropID      optionalID         `json:"cropId"`
		Title       *string            `json:"title"`
		Description *string            `json:"description"`
		DueDate     *time.Time         `json:"dueDate"`
		Priority    *core.TaskPriority `json:"priority"`
		Status      *core.TaskStatus   `json:"status"`
	}

	transactionPatchRequest struct {
		FarmID      *int64                    `json:"farmId"`
		Type        *core.TransactionType     `json:"type"`
		Category    *core.TransactionCategory `json:"category"`
		Amount      *core.Money               `json:"amount"`
		Description *string                   `json:"description"`
		Date        *core.Date                `json:"date"`
	}
)

func (p farmPatchRequest) toPatch() core.FarmPatch {
	return core.FarmPatch{
		Name:      p.Name,
		Location:  p.Location,
		TotalArea: p.TotalArea,
		AreaUnit:  p.AreaUnit,
	}
}

func (p cropPatchRequest) toPatch() core.CropPatch {
	return core.CropPatch{
		FarmID:          p.FarmID,
		Name:            p.Name,
		Variety:         p.Variety,
		PlantedDate:     p.PlantedDate,
		ExpectedHarvest: p.ExpectedHarvest,
		AreaPlanted:     p.AreaPlanted,
		GrowthStage:     p.GrowthStage,
		Status:          p.Status,
	}
}

func (p taskPatchRequest) toPatch() core.TaskPatch {
	out := core.TaskPatch{
		FarmID:      p.FarmID,
		Title:       p.Title,
		Description: p.Description,
		DueDate:     p.DueDate,
		Priority:    p.Priority,
		Status:      p.Status,
	}
	if p.CropID.set {
		out.CropID = &p.CropID.value
	}
	return out
}

func (p transactionPatchRequest) toPatch() core.TransactionPatch {
	return core.TransactionPatch{
		FarmID:      p.FarmID,
		Type:        p.Type,
		Category:    p.Category,
		Amount:      p.Amount,
		Description: p.Description,
		Date:        p.Date,
	}
}
