package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"farmstead/internal/core"
)

// Seed holds the initial contents of each collection.
type Seed struct {
	Farms        []core.Farm        `json:"farms"`
	Crops        []core.Crop        `json:"crops"`
	Tasks        []core.Task        `json:"tasks"`
	Transactions []core.Transaction `json:"transactions"`
}

// NewFromFiles builds a store seeded from JSON files in base
// (seed_farms.json, seed_crops.json, seed_tasks.json,
// seed_transactions.json). Missing or unreadable files fall back to a
// small built-in data set so a fresh checkout serves something.
func NewFromFiles(base string, opts ...Option) *Store {
	seed := Seed{
		Farms:        readSeed[core.Farm](filepath.Join(base, "seed_farms.json")),
		Crops:        readSeed[core.Crop](filepath.Join(base, "seed_crops.json")),
		Tasks:        readSeed[core.Task](filepath.Join(base, "seed_tasks.json")),
		Transactions: readSeed[core.Transaction](filepath.Join(base, "seed_transactions.json")),
	}
	if len(seed.Farms) == 0 {
		seed = DefaultSeed()
	}
	return New(seed, opts...)
}

func readSeed[T any](path string) []T {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// DefaultSeed is the built-in demo data set.
func DefaultSeed() Seed {
	cropRef := func(id int64) *int64 { return &id }
	return Seed{
		Farms: []core.Farm{
			{ID: 1, Name: "Sunrise Valley", Location: "Willamette Valley, OR", TotalArea: 120, AreaUnit: core.Acres, CreatedAt: time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)},
			{ID: 2, Name: "Cedar Creek", Location: "Sonoma County, CA", TotalArea: 45, AreaUnit: core.Hectares, CreatedAt: time.Date(2024, 6, 2, 14, 30, 0, 0, time.UTC)},
		},
		Crops: []core.Crop{
			{ID: 1, FarmID: 1, Name: "Tomatoes", Variety: "Roma", PlantedDate: core.NewDate(2025, 4, 10), ExpectedHarvest: core.NewDate(2025, 8, 15), AreaPlanted: 12, GrowthStage: core.FruitDevelopment, Status: core.CropActive},
			{ID: 2, FarmID: 1, Name: "Sweet Corn", Variety: "Golden Bantam", PlantedDate: core.NewDate(2025, 5, 1), ExpectedHarvest: core.NewDate(2025, 9, 1), AreaPlanted: 30, GrowthStage: core.Vegetative, Status: core.CropActive},
			{ID: 3, FarmID: 2, Name: "Pinot Noir", Variety: "Pommard", PlantedDate: core.NewDate(2022, 3, 20), ExpectedHarvest: core.NewDate(2025, 9, 25), AreaPlanted: 18, GrowthStage: core.Mature, Status: core.CropActive},
		},
		Tasks: []core.Task{
			{ID: 1, FarmID: 1, CropID: cropRef(1), Title: "Irrigate tomato rows", DueDate: time.Date(2025, 8, 28, 7, 0, 0, 0, time.UTC), Priority: core.PriorityHigh, Status: core.TaskPending},
			{ID: 2, FarmID: 2, CropID: cropRef(3), Title: "Test grape sugar levels", Description: "Target 24 brix before scheduling harvest", DueDate: time.Date(2025, 9, 5, 8, 0, 0, 0, time.UTC), Priority: core.PriorityMedium, Status: core.TaskPending},
		},
		Transactions: []core.Transaction{
			{ID: 1, FarmID: 1, Type: core.Expense, Category: core.CategorySeeds, Amount: core.Money{Cents: 48250}, Description: "Roma tomato seed order", Date: core.NewDate(2025, 3, 22)},
			{ID: 2, FarmID: 1, Type: core.Income, Category: core.CategoryProduceSales, Amount: core.Money{Cents: 312000}, Description: "Farmers market, week 33", Date: core.NewDate(2025, 8, 16)},
			{ID: 3, FarmID: 2, Type: core.Income, Category: core.CategoryWineSales, Amount: core.Money{Cents: 780000}, Description: "Case sales to distributor", Date: core.NewDate(2025, 7, 30)},
		},
	}
}
