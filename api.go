package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/lanzy-lanzy/lumberv2/models"
	"github.com/lanzy-lanzy/lumberv2/utils"
	"github.com/shopspring/decimal"
)

// httpStatusFor maps domain errors to HTTP statuses. Anything unrecognized
// is a 500.
func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrorInsufficientStock),
		errors.Is(err, utils.ErrorWouldGoNegative),
		errors.Is(err, utils.ErrorOverpaymentRejected),
		errors.Is(err, utils.ErrorEmptyOrder),
		errors.Is(err, utils.ErrorOrderConfirmed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, utils.ErrorInvalidTransition),
		errors.Is(err, utils.ErrorDeliveryExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := httpStatusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func abortWithBindError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func idParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func registerRoutes(r *gin.Engine) {

	r.POST("/login", loginHandler)
	r.POST("/users", createUserHandler)
	r.GET("/users", listUsersHandler)
	r.GET("/users/:id", getUserHandler)

	r.POST("/categories", createCategoryHandler)
	r.GET("/categories", listCategoriesHandler)
	r.POST("/products", createProductHandler)
	r.GET("/products", listProductsHandler)
	r.GET("/products/:id", getProductHandler)
	r.PUT("/products/:id", updateProductHandler)

	r.POST("/customers", createCustomerHandler)
	r.GET("/customers", listCustomersHandler)
	r.GET("/customers/:id", getCustomerHandler)
	r.PUT("/customers/:id", updateCustomerHandler)
	r.GET("/customers/:id/account-summary", customerAccountSummaryHandler)
	r.GET("/customers/:id/notifications", listNotificationsHandler)
	r.GET("/customers/:id/notifications/unread-count", unreadNotificationCountHandler)
	r.POST("/customers/:id/notifications/read-all", markAllNotificationsReadHandler)
	r.POST("/notifications/:id/read", markNotificationReadHandler)

	r.POST("/suppliers", createSupplierHandler)
	r.GET("/suppliers", listSuppliersHandler)
	r.GET("/suppliers/:id", getSupplierHandler)
	r.GET("/suppliers/:id/price-history", supplierPriceHistoryHandler)

	r.GET("/inventory", listInventoriesHandler)
	r.GET("/inventory/low-stock", lowStockHandler)
	r.GET("/inventory/overstock", overstockHandler)
	r.GET("/inventory/fast-moving", fastMovingHandler)
	r.GET("/inventory/movements", stockMovementsHandler)
	r.GET("/inventory/snapshots", inventorySnapshotsHandler)
	r.GET("/inventory/:productId", getInventoryHandler)
	r.POST("/inventory/receive", receiveStockHandler)
	r.POST("/inventory/issue", issueStockHandler)
	r.POST("/inventory/adjust", adjustStockHandler)
	r.POST("/inventory/availability", availabilityHandler)
	r.POST("/inventory/repair-drift", repairDriftHandler)
	r.POST("/inventory/rebuild", rebuildFromLedgerHandler)
	r.POST("/inventory/snapshots", takeSnapshotsHandler)

	r.POST("/orders", createOrderHandler)
	r.GET("/orders", listOrdersHandler)
	r.GET("/orders/:id", getOrderHandler)
	r.PUT("/orders/:id/lines", replaceOrderLinesHandler)
	r.POST("/orders/:id/confirm", confirmOrderHandler)
	r.POST("/orders/:id/recalculate-discount", recalculateDiscountHandler)
	r.POST("/orders/:id/payments", applyPaymentHandler)
	r.GET("/orders/:id/receipts", listReceiptsHandler)
	r.GET("/orders/:id/confirmation", getOrderConfirmationHandler)
	r.POST("/orders/:id/confirmation/ready", markReadyHandler)
	r.POST("/orders/:id/confirmation/payment-complete", markPaymentCompleteHandler)
	r.POST("/orders/:id/confirmation/picked-up", markPickedUpHandler)
	r.GET("/receipts/:id", getReceiptHandler)

	r.POST("/pos/checkout", posCheckoutHandler)

	r.POST("/deliveries", createDeliveryHandler)
	r.GET("/deliveries/picking-queue", pickingQueueHandler)
	r.GET("/deliveries/dispatch-queue", dispatchQueueHandler)
	r.GET("/deliveries/metrics", deliveryMetricsHandler)
	r.GET("/deliveries/:id", getDeliveryHandler)
	r.GET("/deliveries/:id/logs", deliveryLogsHandler)
	r.PATCH("/deliveries/:id/status", updateDeliveryStatusHandler)
	r.POST("/deliveries/bulk-status", bulkDeliveryStatusHandler)
	r.GET("/orders/:id/delivery", getDeliveryForOrderHandler)
}

func loginHandler(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	info, err := models.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

func createUserHandler(c *gin.Context) {
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	user, err := models.CreateUser(c.Request.Context(), &input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func listUsersHandler(c *gin.Context) {
	users, err := models.GetAllUsers(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func getUserHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	user, err := models.GetUser(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func createCategoryHandler(c *gin.Context) {
	var input models.NewLumberCategory
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	category, err := models.CreateLumberCategory(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func listCategoriesHandler(c *gin.Context) {
	categories, err := models.GetLumberCategories(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func createProductHandler(c *gin.Context) {
	var input models.NewLumberProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	product, err := models.CreateLumberProduct(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func listProductsHandler(c *gin.Context) {
	products, err := models.GetLumberProducts(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func getProductHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := models.GetLumberProduct(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func updateProductHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.NewLumberProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	product, err := models.UpdateLumberProduct(c.Request.Context(), id, input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func createCustomerHandler(c *gin.Context) {
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	customer, err := models.CreateCustomer(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func listCustomersHandler(c *gin.Context) {
	customers, err := models.GetCustomers(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func getCustomerHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	customer, err := models.GetCustomer(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func updateCustomerHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	customer, err := models.UpdateCustomer(c.Request.Context(), id, input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func customerAccountSummaryHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	summary, err := models.GetCustomerAccountSummary(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func listNotificationsHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	unreadOnly := strings.EqualFold(c.Query("unread"), "true")
	notifications, err := models.ListNotifications(c.Request.Context(), id, unreadOnly)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func unreadNotificationCountHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	count, err := models.GetUnreadNotificationCount(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func markAllNotificationsReadHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	updated, err := models.MarkAllNotificationsRead(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func markNotificationReadHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	notification, err := models.MarkNotificationRead(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, notification)
}

func createSupplierHandler(c *gin.Context) {
	var input models.NewSupplier
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	supplier, err := models.CreateSupplier(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

func listSuppliersHandler(c *gin.Context) {
	suppliers, err := models.GetSuppliers(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

func getSupplierHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	supplier, err := models.GetSupplier(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func supplierPriceHistoryHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	history, err := models.GetSupplierPriceHistory(c.Request.Context(), id, intQuery(c, "productId", 0))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func listInventoriesHandler(c *gin.Context) {
	inventories, err := models.GetInventories(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventories)
}

func getInventoryHandler(c *gin.Context) {
	id, ok := idParam(c, "productId")
	if !ok {
		return
	}
	inventory, err := models.GetInventory(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventory)
}

func lowStockHandler(c *gin.Context) {
	threshold, err := decimalQuery(c, "threshold", "100")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid threshold"})
		return
	}
	inventories, err := models.GetLowStockProducts(c.Request.Context(), threshold)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventories)
}

func overstockHandler(c *gin.Context) {
	threshold, err := decimalQuery(c, "threshold", "10000")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid threshold"})
		return
	}
	inventories, err := models.GetOverstockProducts(c.Request.Context(), threshold)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventories)
}

func decimalQuery(c *gin.Context, name string, fallback string) (decimal.Decimal, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		v = fallback
	}
	return utils.ParseDecimal(v)
}

func fastMovingHandler(c *gin.Context) {
	products, err := models.GetFastMovingProducts(c.Request.Context(),
		intQuery(c, "days", 30), intQuery(c, "minMovements", 3))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func stockMovementsHandler(c *gin.Context) {
	movements, err := models.GetStockMovements(c.Request.Context(),
		intQuery(c, "productId", 0), intQuery(c, "limit", 0))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

func inventorySnapshotsHandler(c *gin.Context) {
	productId := intQuery(c, "productId", 0)
	if productId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId is required"})
		return
	}
	snapshots, err := models.GetInventorySnapshots(c.Request.Context(), productId, intQuery(c, "days", 30))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshots)
}

func receiveStockHandler(c *gin.Context) {
	var input models.NewStockReceive
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	movement, err := models.ReceiveStock(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

func issueStockHandler(c *gin.Context) {
	var input models.NewStockIssue
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	movement, err := models.IssueStock(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

func adjustStockHandler(c *gin.Context) {
	var input models.NewStockAdjustment
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	movement, err := models.AdjustStock(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

func availabilityHandler(c *gin.Context) {
	var input struct {
		Items []models.AvailabilityQuery `json:"items" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	results, err := models.ValidateStockAvailability(c.Request.Context(), input.Items)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func repairDriftHandler(c *gin.Context) {
	var productId *int
	if v := intQuery(c, "productId", 0); v > 0 {
		productId = &v
	}
	corrections, err := models.RepairDrift(c.Request.Context(), productId)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"corrections": corrections})
}

func rebuildFromLedgerHandler(c *gin.Context) {
	var productId *int
	if v := intQuery(c, "productId", 0); v > 0 {
		productId = &v
	}
	corrections, err := models.RebuildFromLedger(c.Request.Context(), productId)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"corrections": corrections})
}

func takeSnapshotsHandler(c *gin.Context) {
	count, err := models.TakeInventorySnapshots(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": count})
}

func createOrderHandler(c *gin.Context) {
	var input models.NewSalesOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	order, err := models.CreateSalesOrder(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func listOrdersHandler(c *gin.Context) {
	orders, err := models.GetSalesOrders(c.Request.Context(), intQuery(c, "customerId", 0))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func getOrderHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := models.GetSalesOrder(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func replaceOrderLinesHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		Items []models.NewSalesOrderItem `json:"items" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	order, err := models.ReplaceSalesOrderLines(c.Request.Context(), id, input.Items)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func confirmOrderHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := models.ConfirmSalesOrder(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func recalculateDiscountHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := models.RecalculateDiscount(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func applyPaymentHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.NewPayment
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	input.SalesOrderId = id
	order, receipt, err := models.ApplyPayment(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order, "receipt": receipt})
}

func listReceiptsHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	receipts, err := models.GetReceiptsForOrder(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipts)
}

func getReceiptHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	receipt, err := models.GetReceipt(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func getOrderConfirmationHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	confirmation, err := models.GetOrderConfirmation(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, confirmation)
}

func markReadyHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		EstimatedPickupDate *time.Time `json:"estimated_pickup_date"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindError(c, err)
			return
		}
	}
	confirmation, err := models.MarkReady(c.Request.Context(), id, input.EstimatedPickupDate)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, confirmation)
}

func markPaymentCompleteHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	confirmation, err := models.MarkPaymentComplete(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, confirmation)
}

func markPickedUpHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	confirmation, err := models.MarkPickedUp(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, confirmation)
}

func posCheckoutHandler(c *gin.Context) {
	var input models.PosCheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	result, err := models.PosCheckout(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func createDeliveryHandler(c *gin.Context) {
	var input models.NewDelivery
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	delivery, err := models.CreateDeliveryFromOrder(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, delivery)
}

func getDeliveryHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	delivery, err := models.GetDelivery(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}

func getDeliveryForOrderHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	delivery, err := models.GetDeliveryForOrder(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}

func deliveryLogsHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	logs, err := models.GetDeliveryLogs(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func updateDeliveryStatusHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.DeliveryStatusUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	input.DeliveryId = id
	delivery, err := models.UpdateDeliveryStatus(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}

func bulkDeliveryStatusHandler(c *gin.Context) {
	var input struct {
		Ids    []int                 `json:"ids" binding:"required"`
		Status models.DeliveryStatus `json:"status" binding:"required"`
		Notes  string                `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithBindError(c, err)
		return
	}
	result := models.BulkUpdateDeliveryStatus(c.Request.Context(), input.Ids, input.Status, input.Notes)
	c.JSON(http.StatusOK, result)
}

func pickingQueueHandler(c *gin.Context) {
	deliveries, err := models.GetPickingQueue(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliveries)
}

func dispatchQueueHandler(c *gin.Context) {
	deliveries, err := models.GetDispatchQueue(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliveries)
}

func deliveryMetricsHandler(c *gin.Context) {
	metrics, err := models.GetDeliveryMetrics(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}
