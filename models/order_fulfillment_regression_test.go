package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lanzy-lanzy/lumberv2/config"
	"github.com/lanzy-lanzy/lumberv2/models"
	"github.com/lanzy-lanzy/lumberv2/utils"
	"github.com/shopspring/decimal"
)

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

// setupTestBackend boots a throwaway MySQL + Redis pair, wires env for the
// config.Connect* helpers and migrates a fresh schema.
func setupTestBackend(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "lumberv2_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	return ctx
}

// seedTwoByFour creates a category plus a 2x4x10 product at 10.00 per board
// foot and receives the given opening pieces.
func seedTwoByFour(t *testing.T, ctx context.Context, openingPieces int) *models.LumberProduct {
	t.Helper()

	category, err := models.CreateLumberCategory(ctx, models.NewLumberCategory{Name: "Dimensional Lumber"})
	if err != nil {
		t.Fatalf("CreateLumberCategory: %v", err)
	}
	product, err := models.CreateLumberProduct(ctx, models.NewLumberProduct{
		CategoryId:        category.ID,
		Name:              "2x4x10 KD Pine",
		Sku:               "2X4X10-PINE",
		Thickness:         mustDec(t, "2"),
		Width:             mustDec(t, "4"),
		Length:            mustDec(t, "10"),
		PricePerBoardFoot: mustDec(t, "10.00"),
	})
	if err != nil {
		t.Fatalf("CreateLumberProduct: %v", err)
	}
	if openingPieces > 0 {
		if _, err := models.ReceiveStock(ctx, models.NewStockReceive{
			ProductId:      product.ID,
			QuantityPieces: openingPieces,
			Reference:      "opening",
		}); err != nil {
			t.Fatalf("ReceiveStock: %v", err)
		}
	}
	return product
}

func TestOrderLifecycleWithPartialPayments(t *testing.T) {
	ctx := setupTestBackend(t)

	product := seedTwoByFour(t, ctx, 10)

	// Senior citizen with no explicit rate gets the 20% concession.
	customer, err := models.CreateCustomer(ctx, models.NewCustomer{
		Name:            "Elena Reyes",
		IsSeniorCitizen: utils.NewTrue(),
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if customer.DiscountPercent.Cmp(mustDec(t, "20")) != 0 {
		t.Fatalf("expected concession discount 20; got %s", customer.DiscountPercent.String())
	}

	inv, err := models.GetInventory(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if inv.QuantityPieces != 10 || inv.TotalBoardFeet.Cmp(mustDec(t, "66.67")) != 0 {
		t.Fatalf("expected 10 pcs / 66.67 bf after opening receive; got %d / %s", inv.QuantityPieces, inv.TotalBoardFeet.String())
	}

	// Credit order for 3 pieces: bf 20.001, total 200.01, 20% off -> balance 160.01.
	order, err := models.CreateSalesOrder(ctx, models.NewSalesOrder{
		CustomerId:  customer.ID,
		PaymentType: models.PaymentTypeCredit,
		Items:       []models.NewSalesOrderItem{{ProductId: product.ID, QuantityPieces: 3}},
	})
	if err != nil {
		t.Fatalf("CreateSalesOrder: %v", err)
	}
	if !strings.HasPrefix(order.SoNumber, "SO-") {
		t.Fatalf("expected SO- document number; got %q", order.SoNumber)
	}
	if order.TotalAmount.Cmp(mustDec(t, "200.01")) != 0 {
		t.Fatalf("expected total 200.01; got %s", order.TotalAmount.String())
	}
	if order.DiscountAmount.Cmp(mustDec(t, "40.00")) != 0 {
		t.Fatalf("expected discount 40.00; got %s", order.DiscountAmount.String())
	}
	if order.Balance.Cmp(mustDec(t, "160.01")) != 0 {
		t.Fatalf("expected balance 160.01; got %s", order.Balance.String())
	}

	inv, _ = models.GetInventory(ctx, product.ID)
	if inv.QuantityPieces != 7 || inv.TotalBoardFeet.Cmp(mustDec(t, "46.669")) != 0 {
		t.Fatalf("expected 7 pcs / 46.669 bf after issue; got %d / %s", inv.QuantityPieces, inv.TotalBoardFeet.String())
	}

	confirmation, err := models.GetOrderConfirmation(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrderConfirmation: %v", err)
	}
	if confirmation.Status != models.ConfirmationStatusCreated {
		t.Fatalf("expected Created confirmation; got %s", confirmation.Status)
	}

	// Pre-confirmation line edit: 3 pcs -> 5 pcs, old stock restored first.
	order, err = models.ReplaceSalesOrderLines(ctx, order.ID,
		[]models.NewSalesOrderItem{{ProductId: product.ID, QuantityPieces: 5}})
	if err != nil {
		t.Fatalf("ReplaceSalesOrderLines: %v", err)
	}
	if order.TotalAmount.Cmp(mustDec(t, "333.35")) != 0 {
		t.Fatalf("expected total 333.35 after replace; got %s", order.TotalAmount.String())
	}
	if order.Balance.Cmp(mustDec(t, "266.68")) != 0 {
		t.Fatalf("expected balance 266.68 after replace; got %s", order.Balance.String())
	}
	inv, _ = models.GetInventory(ctx, product.ID)
	if inv.QuantityPieces != 5 || inv.TotalBoardFeet.Cmp(mustDec(t, "33.335")) != 0 {
		t.Fatalf("expected 5 pcs / 33.335 bf after replace; got %d / %s", inv.QuantityPieces, inv.TotalBoardFeet.String())
	}

	// A second order that overshoots available stock must fail whole and
	// leave inventory untouched.
	if _, err := models.CreateSalesOrder(ctx, models.NewSalesOrder{
		CustomerId:  customer.ID,
		PaymentType: models.PaymentTypeCash,
		Items:       []models.NewSalesOrderItem{{ProductId: product.ID, QuantityPieces: 99}},
	}); err != utils.ErrorInsufficientStock {
		t.Fatalf("expected ErrorInsufficientStock; got %v", err)
	}
	inv, _ = models.GetInventory(ctx, product.ID)
	if inv.QuantityPieces != 5 {
		t.Fatalf("failed order must not move stock; got %d pcs", inv.QuantityPieces)
	}

	order, err = models.ConfirmSalesOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("ConfirmSalesOrder: %v", err)
	}
	if _, err := models.ConfirmSalesOrder(ctx, order.ID); err != utils.ErrorOrderConfirmed {
		t.Fatalf("expected ErrorOrderConfirmed on re-confirm; got %v", err)
	}
	if _, err := models.ReplaceSalesOrderLines(ctx, order.ID,
		[]models.NewSalesOrderItem{{ProductId: product.ID, QuantityPieces: 1}}); err != utils.ErrorOrderConfirmed {
		t.Fatalf("expected ErrorOrderConfirmed on post-confirm edit; got %v", err)
	}

	// Over-tender on a credit order is rejected beyond the tolerance.
	if _, _, err := models.ApplyPayment(ctx, models.NewPayment{
		SalesOrderId:   order.ID,
		AmountTendered: mustDec(t, "500.00"),
	}); err != utils.ErrorOverpaymentRejected {
		t.Fatalf("expected ErrorOverpaymentRejected; got %v", err)
	}

	// Two partial payments to zero.
	order, _, err = models.ApplyPayment(ctx, models.NewPayment{
		SalesOrderId:   order.ID,
		AmountTendered: mustDec(t, "100.00"),
	})
	if err != nil {
		t.Fatalf("ApplyPayment(partial): %v", err)
	}
	if order.Balance.Cmp(mustDec(t, "166.68")) != 0 {
		t.Fatalf("expected balance 166.68 after partial payment; got %s", order.Balance.String())
	}
	order, _, err = models.ApplyPayment(ctx, models.NewPayment{
		SalesOrderId:   order.ID,
		AmountTendered: mustDec(t, "166.68"),
	})
	if err != nil {
		t.Fatalf("ApplyPayment(final): %v", err)
	}
	if !order.Balance.IsZero() {
		t.Fatalf("expected zero balance; got %s", order.Balance.String())
	}

	confirmation, _ = models.GetOrderConfirmation(ctx, order.ID)
	if !utils.DereferencePtr(confirmation.IsPaymentComplete) {
		t.Fatal("expected payment-complete flag after balance reached zero")
	}

	receipts, err := models.GetReceiptsForOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetReceiptsForOrder: %v", err)
	}
	if len(receipts) != 2 {
		t.Fatalf("expected 2 receipts; got %d", len(receipts))
	}
	for _, r := range receipts {
		if !strings.HasPrefix(r.ReceiptNumber, "RCP-") {
			t.Fatalf("expected RCP- document number; got %q", r.ReceiptNumber)
		}
	}

	// Pickup lifecycle.
	confirmation, err = models.MarkReady(ctx, order.ID, nil)
	if err != nil {
		t.Fatalf("MarkReady: %v", err)
	}
	if !confirmation.IsCollectable(order.PaymentType) {
		t.Fatal("credit order at ReadyForPickup should be collectable")
	}
	confirmation, err = models.MarkPickedUp(ctx, order.ID)
	if err != nil {
		t.Fatalf("MarkPickedUp: %v", err)
	}
	if confirmation.Status != models.ConfirmationStatusPickedUp {
		t.Fatalf("expected PickedUp; got %s", confirmation.Status)
	}
	if _, err := models.MarkPickedUp(ctx, order.ID); err != utils.ErrorInvalidTransition {
		t.Fatalf("expected ErrorInvalidTransition on double pickup; got %v", err)
	}

	// Customer statement aggregates the one order.
	summary, err := models.GetCustomerAccountSummary(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomerAccountSummary: %v", err)
	}
	if summary.OrderCount != 1 || summary.CreditOrders != 1 {
		t.Fatalf("expected 1 order / 1 credit order; got %+v", summary)
	}
	if !summary.Outstanding.IsZero() {
		t.Fatalf("expected zero outstanding; got %s", summary.Outstanding.String())
	}
}

func TestPosCheckoutWalkInFlow(t *testing.T) {
	ctx := setupTestBackend(t)

	product := seedTwoByFour(t, ctx, 10)
	customer, err := models.CreateCustomer(ctx, models.NewCustomer{Name: "Walk-in"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	// 3 pieces owed 200.01; tender 250 comes back as 49.99 change.
	result, err := models.PosCheckout(ctx, models.PosCheckoutInput{
		CustomerId:     customer.ID,
		Items:          []models.NewSalesOrderItem{{ProductId: product.ID, QuantityPieces: 3}},
		AmountTendered: mustDec(t, "250.00"),
	})
	if err != nil {
		t.Fatalf("PosCheckout: %v", err)
	}
	if result.Change.Cmp(mustDec(t, "49.99")) != 0 {
		t.Fatalf("expected change 49.99; got %s", result.Change.String())
	}
	if !result.Order.Balance.IsZero() {
		t.Fatalf("expected zero balance; got %s", result.Order.Balance.String())
	}
	if !utils.DereferencePtr(result.Order.IsConfirmed) {
		t.Fatal("walk-in order should be auto-confirmed")
	}

	confirmation, err := models.GetOrderConfirmation(ctx, result.Order.ID)
	if err != nil {
		t.Fatalf("GetOrderConfirmation: %v", err)
	}
	if confirmation.Status != models.ConfirmationStatusPickedUp {
		t.Fatalf("expected PickedUp after checkout; got %s", confirmation.Status)
	}
	if !utils.DereferencePtr(confirmation.IsPaymentComplete) {
		t.Fatal("expected payment-complete flag after checkout")
	}

	// Issue the remaining 7 pieces; the floor pins board feet to exactly zero.
	if _, err := models.IssueStock(ctx, models.NewStockIssue{
		ProductId:      product.ID,
		QuantityPieces: 7,
		Reason:         "yard clearance",
	}); err != nil {
		t.Fatalf("IssueStock: %v", err)
	}
	inv, err := models.GetInventory(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if inv.QuantityPieces != 0 || !inv.TotalBoardFeet.IsZero() {
		t.Fatalf("expected 0 pcs / 0 bf; got %d / %s", inv.QuantityPieces, inv.TotalBoardFeet.String())
	}

	// Ledger carries one receive and two issues for the product.
	movements, err := models.GetStockMovements(ctx, product.ID, 0)
	if err != nil {
		t.Fatalf("GetStockMovements: %v", err)
	}
	if len(movements) != 3 {
		t.Fatalf("expected 3 ledger rows; got %d", len(movements))
	}
}

func TestInventoryMaintenanceAndConcurrency(t *testing.T) {
	ctx := setupTestBackend(t)

	product := seedTwoByFour(t, ctx, 8)
	db := config.GetDB()

	// Negative adjustment past zero must refuse, signed positive one applies
	// and annotates the reason.
	if _, err := models.AdjustStock(ctx, models.NewStockAdjustment{
		ProductId:  product.ID,
		PieceDelta: -99,
		Reason:     "count",
	}); err != utils.ErrorWouldGoNegative {
		t.Fatalf("expected ErrorWouldGoNegative; got %v", err)
	}
	adj, err := models.AdjustStock(ctx, models.NewStockAdjustment{
		ProductId:  product.ID,
		PieceDelta: -3,
		Reason:     "damaged in yard",
	})
	if err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	if adj.PieceDelta != -3 || !strings.HasSuffix(adj.Reason, "(-)") {
		t.Fatalf("expected signed delta -3 with (-) reason; got %d %q", adj.PieceDelta, adj.Reason)
	}

	// Corrupt the materialized board feet and repair it.
	if err := db.Model(&models.Inventory{}).Where("product_id = ?", product.ID).
		Update("total_board_feet", mustDec(t, "999")).Error; err != nil {
		t.Fatalf("corrupt board feet: %v", err)
	}
	corrections, err := models.RepairDrift(ctx, &product.ID)
	if err != nil {
		t.Fatalf("RepairDrift: %v", err)
	}
	if len(corrections) != 1 {
		t.Fatalf("expected 1 drift correction; got %d", len(corrections))
	}
	if corrections[0].NewBoardFeet.Cmp(mustDec(t, "33.335")) != 0 {
		t.Fatalf("expected repaired bf 33.335 for 5 pcs; got %s", corrections[0].NewBoardFeet.String())
	}
	corrections, err = models.RepairDrift(ctx, &product.ID)
	if err != nil {
		t.Fatalf("RepairDrift(second): %v", err)
	}
	if len(corrections) != 0 {
		t.Fatalf("second repair should be a no-op; got %d corrections", len(corrections))
	}

	// Corrupt the piece count; the ledger replay restores 8 - 3 = 5.
	if err := db.Model(&models.Inventory{}).Where("product_id = ?", product.ID).
		Update("quantity_pieces", 99).Error; err != nil {
		t.Fatalf("corrupt piece count: %v", err)
	}
	corrections, err = models.RebuildFromLedger(ctx, &product.ID)
	if err != nil {
		t.Fatalf("RebuildFromLedger: %v", err)
	}
	if len(corrections) != 1 {
		t.Fatalf("expected 1 rebuild correction; got %d", len(corrections))
	}
	inv, _ := models.GetInventory(ctx, product.ID)
	if inv.QuantityPieces != 5 || inv.TotalBoardFeet.Cmp(mustDec(t, "33.335")) != 0 {
		t.Fatalf("expected 5 pcs / 33.335 bf after rebuild; got %d / %s", inv.QuantityPieces, inv.TotalBoardFeet.String())
	}

	// 12 concurrent single-piece issues against 5 on hand: exactly 5 land.
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, insufficient := 0, 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := models.IssueStock(ctx, models.NewStockIssue{
				ProductId:      product.ID,
				QuantityPieces: 1,
				Reason:         "concurrent issue",
			})
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				succeeded++
			case utils.ErrorInsufficientStock:
				insufficient++
			default:
				t.Errorf("unexpected issue error: %v", err)
			}
		}()
	}
	wg.Wait()
	if succeeded != 5 || insufficient != 7 {
		t.Fatalf("expected 5 successes / 7 refusals; got %d / %d", succeeded, insufficient)
	}
	inv, _ = models.GetInventory(ctx, product.ID)
	if inv.QuantityPieces != 0 || !inv.TotalBoardFeet.IsZero() {
		t.Fatalf("expected 0 pcs / 0 bf after drain; got %d / %s", inv.QuantityPieces, inv.TotalBoardFeet.String())
	}

	// Daily snapshot upsert is retry-safe.
	count, err := models.TakeInventorySnapshots(ctx)
	if err != nil {
		t.Fatalf("TakeInventorySnapshots: %v", err)
	}
	if count < 1 {
		t.Fatalf("expected at least one snapshot; got %d", count)
	}
	if _, err := models.TakeInventorySnapshots(ctx); err != nil {
		t.Fatalf("TakeInventorySnapshots(rerun): %v", err)
	}
	snapshots, err := models.GetInventorySnapshots(ctx, product.ID, 7)
	if err != nil {
		t.Fatalf("GetInventorySnapshots: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("rerun must overwrite, not duplicate; got %d rows", len(snapshots))
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("lumberv2-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("lumberv2-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=lumberv2_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
