package models

import (
	"log"

	"github.com/lanzy-lanzy/lumberv2/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&LumberCategory{}, &LumberProduct{},
		&Inventory{}, &StockMovement{}, &InventorySnapshot{},
		&Customer{}, &Supplier{}, &SupplierPriceHistory{},
		&SalesOrder{}, &SalesOrderItem{}, &Receipt{},
		&Delivery{}, &DeliveryLog{},
		&OrderConfirmation{}, &OrderNotification{},
		&DocumentSequence{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
