package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Acres      AreaUnit = "acres"
	Hectares   AreaUnit = "hectares"
	SquareFeet AreaUnit = "sq ft"
	SquareM    AreaUnit = "sq m"
)

const (
	Seedling         GrowthStage = "Seedling"
	Vegetative       GrowthStage = "Vegetative"
	Flowering        GrowthStage = "Flowering"
	FruitDevelopment GrowthStage = "Fruit Development"
	RootDevelopment  GrowthStage = "Root Development"
	Mature           GrowthStage = "Mature"
)

const (
	CropActive    CropStatus = "Active"
	CropHarvested CropStatus = "Harvested"
	CropFailed    CropStatus = "Failed"
)

const (
	PriorityHigh   TaskPriority = "High"
	PriorityMedium TaskPriority = "Medium"
	PriorityLow    TaskPriority = "Low"
)

const (
	TaskPending    TaskStatus = "Pending"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

const (
	CategorySeeds        TransactionCategory = "Seeds"
	CategoryFertilizer   TransactionCategory = "Fertilizer"
	CategoryEquipment    TransactionCategory = "Equipment"
	CategoryUtilities    TransactionCategory = "Utilities"
	CategoryLabor        TransactionCategory = "Labor"
	CategoryProduceSales TransactionCategory = "Produce Sales"
	CategoryWineSales    TransactionCategory = "Wine Sales"
	CategoryOther        TransactionCategory = "Other"
)

type (
	AreaUnit            string
	GrowthStage         string
	CropStatus          string
	TaskPriority        string
	TaskStatus          string
	TransactionType     string
	TransactionCategory string

	// Date is a calendar date; the time-of-day portion is always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Farm struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Location  string    `json:"location"`
		TotalArea float64   `json:"totalArea"`
		AreaUnit  AreaUnit  `json:"areaUnit"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Crop struct {
		ID              int64       `json:"id"`
		FarmID          int64       `json:"farmId"`
		Name            string      `json:"name"`
		Variety         string      `json:"variety"`
		PlantedDate     Date        `json:"plantedDate"`
		ExpectedHarvest Date        `json:"expectedHarvest"`
		AreaPlanted     float64     `json:"areaPlanted"`
		GrowthStage     GrowthStage `json:"growthStage"`
		Status          CropStatus  `json:"status"`
	}

	Task struct {
		ID          int64        `json:"id"`
		FarmID      int64        `json:"farmId"`
		CropID      *int64       `json:"cropId,omitempty"`
		Title       string       `json:"title"`
		Description string       `json:"description,omitempty"`
		DueDate     time.Time    `json:"dueDate"`
		Priority    TaskPriority `json:"priority"`
		Status      TaskStatus   `json:"status"`
		CompletedAt *time.Time   `json:"completedAt,omitempty"`
	}

	Transaction struct {
		ID          int64               `json:"id"`
		FarmID      int64               `json:"farmId"`
		Type        TransactionType     `json:"type"`
		Category    TransactionCategory `json:"category"`
		Amount      Money               `json:"amount"`
		Description string              `json:"description"`
		Date        Date                `json:"date"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

func (u AreaUnit) Valid() bool {
	switch u {
	case Acres, Hectares, SquareFeet, SquareM:
		return true
	}
	return false
}

func (g GrowthStage) Valid() bool {
	switch g {
	case Seedling, Vegetative, Flowering, FruitDevelopment, RootDevelopment, Mature:
		return true
	}
	return false
}

func (s CropStatus) Valid() bool {
	switch s {
	case CropActive, CropHarvested, CropFailed:
		return true
	}
	return false
}

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense:
		return true
	}
	return false
}

func (c TransactionCategory) Valid() bool {
	switch c {
	case CategorySeeds, CategoryFertilizer, CategoryEquipment, CategoryUtilities,
		CategoryLabor, CategoryProduceSales, CategoryWineSales, CategoryOther:
		return true
	}
	return false
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// SameDay reports whether d and t fall on the same calendar day in UTC.
func (d Date) SameDay(t time.Time) bool {
	y1, m1, d1 := d.UTC().Date()
	y2, m2, d2 := t.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return ErrInvalidDate
	}
	*d = Date{Time: t}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (f Farm) Validate() error {
	v := newValidation()
	if strings.TrimSpace(f.Name) == "" {
		v.add("name", "name is required")
	}
	if strings.TrimSpace(f.Location) == "" {
		v.add("location", "location is required")
	}
	if f.TotalArea <= 0 {
		v.add("totalArea", "total area must be positive")
	}
	if !f.AreaUnit.Valid() {
		v.add("areaUnit", "unknown area unit")
	}
	return v.err()
}

func (c Crop) Validate() error {
	v := newValidation()
	if strings.TrimSpace(c.Name) == "" {
		v.add("name", "name is required")
	}
	if c.FarmID <= 0 {
		v.add("farmId", "farm reference is required")
	}
	if c.PlantedDate.IsZero() {
		v.add("plantedDate", "planted date is required")
	}
	if c.ExpectedHarvest.IsZero() {
		v.add("expectedHarvest", "expected harvest date is required")
	}
	if c.AreaPlanted <= 0 {
		v.add("areaPlanted", "planted area must be positive")
	}
	if !c.GrowthStage.Valid() {
		v.add("growthStage", "unknown growth stage")
	}
	if !c.Status.Valid() {
		v.add("status", "unknown crop status")
	}
	return v.err()
}

func (t Task) Validate() error {
	v := newValidation()
	if strings.TrimSpace(t.Title) == "" {
		v.add("title", "title is required")
	}
	if t.FarmID <= 0 {
		v.add("farmId", "farm reference is required")
	}
	if t.DueDate.IsZero() {
		v.add("dueDate", "due date is required")
	}
	if !t.Priority.Valid() {
		v.add("priority", "unknown priority")
	}
	if !t.Status.Valid() {
		v.add("status", "unknown task status")
	}
	return v.err()
}

func (t Transaction) Validate() error {
	v := newValidation()
	if !t.Type.Valid() {
		v.add("type", "unknown transaction type")
	}
	if !t.Category.Valid() {
		v.add("category", "unknown category")
	}
	if t.Amount.Cents < 0 {
		v.add("amount", "amount must not be negative")
	}
	if strings.TrimSpace(t.Description) == "" {
		v.add("description", "description is required")
	}
	if t.Date.IsZero() {
		v.add("date", "date is required")
	}
	if t.FarmID <= 0 {
		v.add("farmId", "farm reference is required")
	}
	return v.err()
}

// IsOverdue reports whether the task is past due and not completed.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate.Before(now) && t.Status != TaskCompleted
}
