package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lanzy-lanzy/lumberv2/config"
	"github.com/lanzy-lanzy/lumberv2/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Inventory is the materialized per-product stock record. It is only ever
// written under a row lock through the ledger operations below; the
// StockMovement table is the audit trail beneath it.
type Inventory struct {
	ID             int             `gorm:"primary_key" json:"id"`
	ProductId      int             `gorm:"uniqueIndex;not null" json:"product_id"`
	QuantityPieces int             `gorm:"not null;default:0" json:"quantity_pieces"`
	TotalBoardFeet decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_board_feet"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Product        LumberProduct   `gorm:"foreignKey:ProductId" json:"product"`
}

// StockMovement rows are append-only, never mutated or deleted.
// PieceDelta and BoardFeet carry the unsigned magnitude for Receive/Issue
// (the kind implies the sign) and the signed delta for Adjust.
type StockMovement struct {
	ID            int              `gorm:"primary_key" json:"id"`
	ProductId     int              `gorm:"index:idx_movement_product_time;not null" json:"product_id"`
	Kind          MovementKind     `gorm:"type:enum('Receive','Issue','Adjust');not null" json:"kind"`
	PieceDelta    int              `gorm:"not null" json:"piece_delta"`
	BoardFeet     decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"board_feet"`
	Reason        string           `gorm:"size:255" json:"reason"`
	Reference     string           `gorm:"size:100" json:"reference"`
	UnitCost      *decimal.Decimal `gorm:"type:decimal(20,4);default:null" json:"unit_cost"`
	CreatedBy     int              `json:"created_by"`
	CorrelationId string           `gorm:"size:36" json:"correlation_id"`
	CreatedAt     time.Time        `gorm:"autoCreateTime;index:idx_movement_product_time" json:"created_at"`
}

type NewStockReceive struct {
	ProductId      int              `json:"product_id" binding:"required"`
	QuantityPieces int              `json:"quantity_pieces" binding:"required,gt=0"`
	SupplierId     int              `json:"supplier_id"`
	CostPerUnit    *decimal.Decimal `json:"cost_per_unit"`
	Reference      string           `json:"reference"`
}

type NewStockIssue struct {
	ProductId      int    `json:"product_id" binding:"required"`
	QuantityPieces int    `json:"quantity_pieces" binding:"required,gt=0"`
	Reason         string `json:"reason" binding:"required"`
	Reference      string `json:"reference"`
}

type NewStockAdjustment struct {
	ProductId  int    `json:"product_id" binding:"required"`
	PieceDelta int    `json:"piece_delta" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// lockInventory takes the row lock that serializes every read-check-write
// against one product's stock. Creates the row if the product predates it.
func lockInventory(tx *gorm.DB, productId int) (*Inventory, error) {
	inventory := Inventory{ProductId: productId}
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", productId).
		FirstOrCreate(&inventory)
	if result.Error != nil {
		return nil, result.Error
	}
	return &inventory, nil
}

// applyInventoryFloor enforces the zero-stock edge rules after a decrement:
// pieces at zero force board feet to exactly zero, and a negative board-feet
// residue with pieces still on hand is recomputed from the piece count.
func applyInventoryFloor(inventory *Inventory, product *LumberProduct) {
	if inventory.QuantityPieces <= 0 {
		inventory.QuantityPieces = 0
		inventory.TotalBoardFeet = decimal.Zero
	} else if inventory.TotalBoardFeet.IsNegative() {
		inventory.TotalBoardFeet = product.BoardFeet(inventory.QuantityPieces)
	}
}

func movementCorrelationId(ctx context.Context) string {
	if id, ok := utils.GetCorrelationIdFromContext(ctx); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

func appendMovement(tx *gorm.DB, ctx context.Context, movement *StockMovement) error {
	userId, _ := utils.GetUserIdFromContext(ctx)
	movement.CreatedBy = userId
	movement.CorrelationId = movementCorrelationId(ctx)
	return tx.Create(movement).Error
}

// ReceiveStock increments stock for a supplier delivery. When a supplier and
// unit cost are given, the supplier's price history is rolled in the same
// transaction.
func ReceiveStock(ctx context.Context, input NewStockReceive) (*StockMovement, error) {

	db := config.GetDB()

	product, err := utils.FetchModel[LumberProduct](ctx, input.ProductId)
	if err != nil {
		return nil, err
	}
	if input.SupplierId > 0 {
		if err := utils.ValidateResourceId[Supplier](ctx, input.SupplierId); err != nil {
			return nil, errors.New("supplier not found")
		}
	}

	tx := db.WithContext(ctx).Begin()

	movement, err := receiveStockTx(tx, ctx, product, input.QuantityPieces, "stock in", input.Reference)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if input.CostPerUnit != nil {
		movement.UnitCost = input.CostPerUnit
		if err := tx.Model(&StockMovement{}).Where("id = ?", movement.ID).
			Update("unit_cost", input.CostPerUnit).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if input.SupplierId > 0 && input.CostPerUnit != nil {
		if err := rollSupplierPrice(tx, input.SupplierId, product.ID, *input.CostPerUnit, time.Now()); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	return movement, tx.Commit().Error
}

func receiveStockTx(tx *gorm.DB, ctx context.Context, product *LumberProduct, pieces int, reason string, reference string) (*StockMovement, error) {

	inventory, err := lockInventory(tx, product.ID)
	if err != nil {
		return nil, err
	}

	boardFeet := product.BoardFeet(pieces)
	inventory.QuantityPieces += pieces
	inventory.TotalBoardFeet = inventory.TotalBoardFeet.Add(boardFeet)

	if err := tx.Model(&Inventory{}).Where("id = ?", inventory.ID).
		Updates(map[string]interface{}{
			"quantity_pieces":  inventory.QuantityPieces,
			"total_board_feet": inventory.TotalBoardFeet,
		}).Error; err != nil {
		return nil, err
	}

	movement := StockMovement{
		ProductId:  product.ID,
		Kind:       MovementKindReceive,
		PieceDelta: pieces,
		BoardFeet:  boardFeet,
		Reason:     reason,
		Reference:  reference,
	}
	if err := appendMovement(tx, ctx, &movement); err != nil {
		return nil, err
	}
	return &movement, nil
}

// IssueStock removes stock for a sale or internal use. Fails with
// ErrorInsufficientStock when the request exceeds pieces on hand; there is
// no partial issue.
func IssueStock(ctx context.Context, input NewStockIssue) (*StockMovement, error) {

	db := config.GetDB()

	product, err := utils.FetchModel[LumberProduct](ctx, input.ProductId)
	if err != nil {
		return nil, err
	}

	tx := db.WithContext(ctx).Begin()
	movement, err := issueStockTx(tx, ctx, product, input.QuantityPieces, input.Reason, input.Reference)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	return movement, tx.Commit().Error
}

func issueStockTx(tx *gorm.DB, ctx context.Context, product *LumberProduct, pieces int, reason string, reference string) (*StockMovement, error) {

	inventory, err := lockInventory(tx, product.ID)
	if err != nil {
		return nil, err
	}
	if pieces > inventory.QuantityPieces {
		return nil, utils.ErrorInsufficientStock
	}

	boardFeet := product.BoardFeet(pieces)
	inventory.QuantityPieces -= pieces
	inventory.TotalBoardFeet = inventory.TotalBoardFeet.Sub(boardFeet)
	applyInventoryFloor(inventory, product)

	if err := tx.Model(&Inventory{}).Where("id = ?", inventory.ID).
		Updates(map[string]interface{}{
			"quantity_pieces":  inventory.QuantityPieces,
			"total_board_feet": inventory.TotalBoardFeet,
		}).Error; err != nil {
		return nil, err
	}

	movement := StockMovement{
		ProductId:  product.ID,
		Kind:       MovementKindIssue,
		PieceDelta: pieces,
		BoardFeet:  boardFeet,
		Reason:     reason,
		Reference:  reference,
	}
	if err := appendMovement(tx, ctx, &movement); err != nil {
		return nil, err
	}
	return &movement, nil
}

// AdjustStock applies a signed correction (damage, miscount). Fails with
// ErrorWouldGoNegative instead of clamping.
func AdjustStock(ctx context.Context, input NewStockAdjustment) (*StockMovement, error) {

	db := config.GetDB()

	product, err := utils.FetchModel[LumberProduct](ctx, input.ProductId)
	if err != nil {
		return nil, err
	}

	tx := db.WithContext(ctx).Begin()

	inventory, err := lockInventory(tx, product.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if inventory.QuantityPieces+input.PieceDelta < 0 {
		tx.Rollback()
		return nil, utils.ErrorWouldGoNegative
	}

	boardFeetDelta := product.BoardFeet(input.PieceDelta)
	inventory.QuantityPieces += input.PieceDelta
	inventory.TotalBoardFeet = inventory.TotalBoardFeet.Add(boardFeetDelta)
	applyInventoryFloor(inventory, product)

	if err := tx.Model(&Inventory{}).Where("id = ?", inventory.ID).
		Updates(map[string]interface{}{
			"quantity_pieces":  inventory.QuantityPieces,
			"total_board_feet": inventory.TotalBoardFeet,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	reason := input.Reason + " (-)"
	if input.PieceDelta > 0 {
		reason = input.Reason + " (+)"
	}
	movement := StockMovement{
		ProductId:  product.ID,
		Kind:       MovementKindAdjust,
		PieceDelta: input.PieceDelta,
		BoardFeet:  boardFeetDelta,
		Reason:     reason,
	}
	if err := appendMovement(tx, ctx, &movement); err != nil {
		tx.Rollback()
		return nil, err
	}

	return &movement, tx.Commit().Error
}

type DriftCorrection struct {
	ProductId    int             `json:"product_id"`
	ProductName  string          `json:"product_name"`
	OldBoardFeet decimal.Decimal `json:"old_board_feet"`
	NewBoardFeet decimal.Decimal `json:"new_board_feet"`
}

// RepairDrift recomputes total board feet from pieces x unit volume for one
// or all products and overwrites the materialized value when it drifted.
// Returns the before/after pairs; running it twice back to back yields an
// empty second result.
func RepairDrift(ctx context.Context, productId *int) ([]DriftCorrection, error) {

	release, err := utils.ObtainMaintenanceLock(ctx, "inventory-repair", "inventory", "RepairDrift", 60*time.Second)
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()

	var products []*LumberProduct
	dbCtx := db.WithContext(ctx)
	if productId != nil {
		dbCtx = dbCtx.Where("id = ?", *productId)
	}
	if err := dbCtx.Find(&products).Error; err != nil {
		return nil, err
	}
	if productId != nil && len(products) == 0 {
		return nil, utils.ErrorRecordNotFound
	}

	corrections := []DriftCorrection{}
	tx := db.WithContext(ctx).Begin()
	for _, product := range products {
		inventory, err := lockInventory(tx, product.ID)
		if err != nil {
			tx.Rollback()
			return nil, err
		}

		expected := product.BoardFeet(inventory.QuantityPieces)
		if inventory.QuantityPieces == 0 {
			expected = decimal.Zero
		}
		if inventory.TotalBoardFeet.Equal(expected) {
			continue
		}

		if err := tx.Model(&Inventory{}).Where("id = ?", inventory.ID).
			Update("total_board_feet", expected).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		corrections = append(corrections, DriftCorrection{
			ProductId:    product.ID,
			ProductName:  product.Name,
			OldBoardFeet: inventory.TotalBoardFeet,
			NewBoardFeet: expected,
		})
	}

	return corrections, tx.Commit().Error
}

// RebuildFromLedger replays the movement ledger into the materialized record,
// the stronger repair for when the record itself is suspect. Receive adds,
// Issue subtracts, Adjust applies its signed delta.
func RebuildFromLedger(ctx context.Context, productId *int) ([]DriftCorrection, error) {

	release, err := utils.ObtainMaintenanceLock(ctx, "inventory-rebuild", "inventory", "RebuildFromLedger", 120*time.Second)
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()

	var products []*LumberProduct
	dbCtx := db.WithContext(ctx)
	if productId != nil {
		dbCtx = dbCtx.Where("id = ?", *productId)
	}
	if err := dbCtx.Find(&products).Error; err != nil {
		return nil, err
	}
	if productId != nil && len(products) == 0 {
		return nil, utils.ErrorRecordNotFound
	}

	corrections := []DriftCorrection{}
	tx := db.WithContext(ctx).Begin()
	for _, product := range products {
		inventory, err := lockInventory(tx, product.ID)
		if err != nil {
			tx.Rollback()
			return nil, err
		}

		var pieces int
		if err := tx.Model(&StockMovement{}).
			Select(`COALESCE(SUM(CASE kind
				WHEN 'Receive' THEN piece_delta
				WHEN 'Issue' THEN -piece_delta
				ELSE piece_delta END), 0)`).
			Where("product_id = ?", product.ID).
			Scan(&pieces).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if pieces < 0 {
			pieces = 0
		}
		boardFeet := product.BoardFeet(pieces)
		if pieces == 0 {
			boardFeet = decimal.Zero
		}

		if inventory.QuantityPieces == pieces && inventory.TotalBoardFeet.Equal(boardFeet) {
			continue
		}
		if err := tx.Model(&Inventory{}).Where("id = ?", inventory.ID).
			Updates(map[string]interface{}{
				"quantity_pieces":  pieces,
				"total_board_feet": boardFeet,
			}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		corrections = append(corrections, DriftCorrection{
			ProductId:    product.ID,
			ProductName:  product.Name,
			OldBoardFeet: inventory.TotalBoardFeet,
			NewBoardFeet: boardFeet,
		})
	}

	return corrections, tx.Commit().Error
}

func GetInventory(ctx context.Context, productId int) (*Inventory, error) {

	db := config.GetDB()
	var inventory Inventory
	if err := db.WithContext(ctx).Preload("Product").
		Where("product_id = ?", productId).First(&inventory).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &inventory, nil
}

func GetInventories(ctx context.Context) ([]*Inventory, error) {
	return utils.FetchAllModels[Inventory](ctx, "Product")
}

func GetStockMovements(ctx context.Context, productId int, limit int) ([]*StockMovement, error) {

	db := config.GetDB()
	if limit <= 0 {
		limit = 50
	}
	var movements []*StockMovement
	if err := db.WithContext(ctx).
		Where("product_id = ?", productId).
		Order("created_at DESC").
		Limit(limit).
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func GetLowStockProducts(ctx context.Context, threshold decimal.Decimal) ([]*Inventory, error) {

	db := config.GetDB()
	var inventories []*Inventory
	if err := db.WithContext(ctx).Preload("Product").
		Where("total_board_feet <= ?", threshold).
		Order("total_board_feet ASC").
		Find(&inventories).Error; err != nil {
		return nil, err
	}
	return inventories, nil
}

func GetOverstockProducts(ctx context.Context, threshold decimal.Decimal) ([]*Inventory, error) {

	db := config.GetDB()
	var inventories []*Inventory
	if err := db.WithContext(ctx).Preload("Product").
		Where("total_board_feet >= ?", threshold).
		Order("total_board_feet DESC").
		Find(&inventories).Error; err != nil {
		return nil, err
	}
	return inventories, nil
}

type FastMovingProduct struct {
	ProductId    int    `json:"product_id"`
	ProductName  string `json:"product_name"`
	IssueCount   int    `json:"issue_count"`
	PiecesIssued int    `json:"pieces_issued"`
}

// GetFastMovingProducts ranks products by issue activity in the last N days.
func GetFastMovingProducts(ctx context.Context, days int, minMovements int) ([]*FastMovingProduct, error) {

	db := config.GetDB()
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	var results []*FastMovingProduct
	if err := db.WithContext(ctx).Model(&StockMovement{}).
		Select("stock_movements.product_id, lumber_products.name AS product_name, COUNT(*) AS issue_count, SUM(stock_movements.piece_delta) AS pieces_issued").
		Joins("JOIN lumber_products ON lumber_products.id = stock_movements.product_id").
		Where("stock_movements.kind = ? AND stock_movements.created_at >= ?", MovementKindIssue, since).
		Group("stock_movements.product_id, lumber_products.name").
		Having("COUNT(*) >= ?", minMovements).
		Order("issue_count DESC").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type AvailabilityQuery struct {
	ProductId      int `json:"product_id" binding:"required"`
	QuantityPieces int `json:"quantity_pieces" binding:"required,gt=0"`
}

type AvailabilityResult struct {
	ProductId int  `json:"product_id"`
	Requested int  `json:"requested"`
	OnHand    int  `json:"on_hand"`
	Available bool `json:"available"`
}

// ValidateStockAvailability is the non-binding pre-check used by storefront
// carts. It takes no locks; checkout still revalidates under the row lock.
func ValidateStockAvailability(ctx context.Context, items []AvailabilityQuery) ([]AvailabilityResult, error) {

	db := config.GetDB()

	results := make([]AvailabilityResult, 0, len(items))
	for _, item := range items {
		var inventory Inventory
		onHand := 0
		err := db.WithContext(ctx).Where("product_id = ?", item.ProductId).First(&inventory).Error
		if err == nil {
			onHand = inventory.QuantityPieces
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		results = append(results, AvailabilityResult{
			ProductId: item.ProductId,
			Requested: item.QuantityPieces,
			OnHand:    onHand,
			Available: onHand >= item.QuantityPieces,
		})
	}
	return results, nil
}
