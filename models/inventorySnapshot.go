package models

import (
	"context"
	"time"

	"github.com/lanzy-lanzy/lumberv2/config"
	"github.com/lanzy-lanzy/lumberv2/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// InventorySnapshot is one frozen stock reading per product per day, used
// for trend reads without touching the live record.
type InventorySnapshot struct {
	ID             int             `gorm:"primary_key" json:"id"`
	ProductId      int             `gorm:"uniqueIndex:idx_snapshot_product_date;not null" json:"product_id"`
	SnapshotDate   time.Time       `gorm:"type:date;uniqueIndex:idx_snapshot_product_date;not null" json:"snapshot_date"`
	QuantityPieces int             `gorm:"not null;default:0" json:"quantity_pieces"`
	TotalBoardFeet decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_board_feet"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TakeInventorySnapshots freezes today's stock reading for every product.
// Re-running on the same day overwrites that day's rows, so the job is safe
// to retry.
func TakeInventorySnapshots(ctx context.Context) (int, error) {

	release, err := utils.ObtainMaintenanceLock(ctx, "inventory-snapshot", "inventorySnapshot", "TakeInventorySnapshots", 120*time.Second)
	if err != nil {
		return 0, err
	}
	defer release()

	db := config.GetDB()

	inventories, err := utils.FetchAllModels[Inventory](ctx)
	if err != nil {
		return 0, err
	}

	today, err := utils.ConvertToDate(time.Now(), "")
	if err != nil {
		return 0, err
	}

	tx := db.WithContext(ctx).Begin()
	for _, inventory := range inventories {
		snapshot := InventorySnapshot{
			ProductId:      inventory.ProductId,
			SnapshotDate:   today,
			QuantityPieces: inventory.QuantityPieces,
			TotalBoardFeet: inventory.TotalBoardFeet,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "snapshot_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity_pieces", "total_board_feet"}),
		}).Create(&snapshot).Error; err != nil {
			tx.Rollback()
			return 0, err
		}
	}

	return len(inventories), tx.Commit().Error
}

func GetInventorySnapshots(ctx context.Context, productId int, days int) ([]*InventorySnapshot, error) {

	db := config.GetDB()
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	var snapshots []*InventorySnapshot
	if err := db.WithContext(ctx).
		Where("product_id = ? AND snapshot_date >= ?", productId, since).
		Order("snapshot_date ASC").
		Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}
