package services

import (
	"context"
	"fmt"
	"log/slog"

	"farmstead/internal/store"
)

// FarmService implements the cascade delete of a farm. Stores keep no
// referential links between collections, so the cascade is explicit:
// list the farm's crops, delete each, then delete the farm.
type FarmService struct {
	store store.Store
}

func NewFarmService(st store.Store) *FarmService {
	return &FarmService{store: st}
}

// DeleteWithCrops removes a farm and every crop that references it.
// Crops are removed first so a failure part-way leaves the farm intact
// and the operation retryable.
func (s *FarmService) DeleteWithCrops(ctx context.Context, farmID int64) error {
	crops, err := s.store.Crops().ListByFarm(ctx, farmID)
	if err != nil {
		return fmt.Errorf("list crops for farm %d: %w", farmID, err)
	}

	for _, c := range crops {
		if err := s.store.Crops().Delete(ctx, c.ID); err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("delete crop %d: %w", c.ID, err)
		}
	}

	if err := s.store.Farms().Delete(ctx, farmID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Farm deleted with crops", "farm_id", farmID, "crops_deleted", len(crops))
	return nil
}
