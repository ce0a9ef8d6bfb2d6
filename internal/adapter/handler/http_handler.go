package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rmontes/storefront/internal/core/domain"
	"github.com/rmontes/storefront/internal/core/service"
	"github.com/rmontes/storefront/internal/port"
)

type HTTPHandler struct {
	checkout *service.CheckoutService
	carts    *service.CartService
	catalog  *service.CatalogService
	tickets  *service.TicketService
	logger   *zap.Logger
}

func NewHTTPHandler(
	checkout *service.CheckoutService,
	carts *service.CartService,
	catalog *service.CatalogService,
	tickets *service.TicketService,
	logger *zap.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		checkout: checkout,
		carts:    carts,
		catalog:  catalog,
		tickets:  tickets,
		logger:   logger,
	}
}

func (h *HTTPHandler) Register(router *gin.Engine, authMW gin.HandlerFunc) {
	router.GET("/health", h.HealthCheck)

	products := router.Group("/api/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:pid", h.GetProduct)
		products.POST("", authMW, RequireAdmin(), h.CreateProduct)
		products.PUT("/:pid", authMW, RequireAdmin(), h.UpdateProduct)
		products.DELETE("/:pid", authMW, RequireAdmin(), h.DeleteProduct)
	}

	carts := router.Group("/api/carts", authMW)
	{
		carts.POST("", h.ProvisionCart)
		carts.GET("/:cid", h.GetCart)
		carts.POST("/:cid/products/:pid", h.AddToCart)
		carts.PUT("/:cid/products/:pid", h.UpdateCartQuantity)
		carts.DELETE("/:cid/products/:pid", h.RemoveFromCart)
		carts.DELETE("/:cid", h.ClearCart)
		carts.POST("/:cid/checkout", h.Checkout)
	}

	tickets := router.Group("/api/tickets", authMW)
	{
		tickets.GET("/code/:code", h.GetTicketByCode)
		tickets.GET("/my", h.MyTickets)
		tickets.GET("/report", RequireAdmin(), h.SalesReport)
	}
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Checkout converts the cart into a ticket. Full success answers 200, partial
// success 206 so callers can tell the two apart without inspecting the body.
func (h *HTTPHandler) Checkout(c *gin.Context) {
	caller := callerFrom(c)
	idempotencyKey := c.GetHeader("Idempotency-Key")

	result, err := h.checkout.Checkout(c.Request.Context(), c.Param("cid"), caller, idempotencyKey)
	if err != nil {
		h.checkoutError(c, err)
		return
	}

	status := http.StatusOK
	if result.PartialPurchase {
		status = http.StatusPartialContent
	}
	c.JSON(status, gin.H{
		"status":  "success",
		"payload": newCheckoutDTO(result),
	})
}

func (h *HTTPHandler) checkoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCartNotFound):
		fail(c, http.StatusNotFound, "cart not found")
	case errors.Is(err, service.ErrForbidden):
		fail(c, http.StatusForbidden, "you can only check out your own cart")
	case errors.Is(err, service.ErrNothingAvailable):
		fail(c, http.StatusConflict, "no products available for purchase")
	case errors.Is(err, service.ErrDuplicateRequest):
		fail(c, http.StatusConflict, "duplicate checkout request")
	case errors.Is(err, service.ErrCodeGeneration):
		fail(c, http.StatusInternalServerError, "could not allocate a ticket code, verify your tickets before retrying")
	default:
		h.logger.Error("checkout failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error, verify your tickets before retrying")
	}
}

func (h *HTTPHandler) ProvisionCart(c *gin.Context) {
	cart, err := h.carts.Provision(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	ok(c, http.StatusCreated, newCartDTO(cart))
}

func (h *HTTPHandler) GetCart(c *gin.Context) {
	cart, err := h.carts.Get(c.Request.Context(), c.Param("cid"), callerFrom(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, newCartDTO(cart))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *HTTPHandler) AddToCart(c *gin.Context) {
	// Missing body means "add one", matching the catalog browse flow.
	req := updateQuantityRequest{Quantity: 1}
	_ = c.ShouldBindJSON(&req)

	err := h.carts.AddProduct(c.Request.Context(), c.Param("cid"), c.Param("pid"), req.Quantity, callerFrom(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	h.GetCart(c)
}

func (h *HTTPHandler) UpdateCartQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.carts.UpdateQuantity(c.Request.Context(), c.Param("cid"), c.Param("pid"), req.Quantity, callerFrom(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	h.GetCart(c)
}

func (h *HTTPHandler) RemoveFromCart(c *gin.Context) {
	err := h.carts.RemoveProduct(c.Request.Context(), c.Param("cid"), c.Param("pid"), callerFrom(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	h.GetCart(c)
}

func (h *HTTPHandler) ClearCart(c *gin.Context) {
	err := h.carts.Clear(c.Request.Context(), c.Param("cid"), callerFrom(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"cleared": true})
}

func (h *HTTPHandler) ListProducts(c *gin.Context) {
	filter := port.ProductFilter{
		Category: c.Query("category"),
		Status:   domain.ProductStatus(c.Query("status")),
		Limit:    intQuery(c, "limit"),
		Page:     intQuery(c, "page"),
	}

	products, err := h.catalog.List(c.Request.Context(), filter)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	payload := make([]productDTO, 0, len(products))
	for i := range products {
		payload = append(payload, newProductDTO(&products[i]))
	}
	ok(c, http.StatusOK, payload)
}

func (h *HTTPHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.Get(c.Request.Context(), c.Param("pid"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, newProductDTO(product))
}

type productRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Code        string          `json:"code"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock"`
	Status      string          `json:"status"`
	Category    string          `json:"category"`
}

func (r productRequest) toDomain(id string) *domain.Product {
	return &domain.Product{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Code:        r.Code,
		Price:       r.Price,
		Stock:       r.Stock,
		Status:      domain.ProductStatus(r.Status),
		Category:    r.Category,
	}
}

func (h *HTTPHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	product := req.toDomain("")
	if err := h.catalog.Create(c.Request.Context(), product); err != nil {
		h.serviceError(c, err)
		return
	}
	ok(c, http.StatusCreated, newProductDTO(product))
}

func (h *HTTPHandler) UpdateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	product := req.toDomain(c.Param("pid"))
	if err := h.catalog.Update(c.Request.Context(), product); err != nil {
		h.serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, newProductDTO(product))
}

func (h *HTTPHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("pid")); err != nil {
		h.serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *HTTPHandler) GetTicketByCode(c *gin.Context) {
	ticket, err := h.tickets.GetByCode(c.Request.Context(), c.Param("code"), callerFrom(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, newTicketDTO(ticket))
}

func (h *HTTPHandler) MyTickets(c *gin.Context) {
	tickets, err := h.tickets.ListMine(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	payload := make([]ticketDTO, 0, len(tickets))
	for i := range tickets {
		payload = append(payload, newTicketDTO(&tickets[i]))
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": payload, "count": len(payload)})
}

func (h *HTTPHandler) SalesReport(c *gin.Context) {
	start, err1 := time.Parse(time.RFC3339, c.Query("start"))
	end, err2 := time.Parse(time.RFC3339, c.Query("end"))
	if err1 != nil || err2 != nil {
		fail(c, http.StatusBadRequest, "start and end must be RFC3339 timestamps")
		return
	}

	summary, err := h.tickets.Report(c.Request.Context(), start, end)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, newReportDTO(summary))
}

// serviceError maps service sentinels onto HTTP statuses; anything unmapped
// is a 500 and gets logged with its cause.
func (h *HTTPHandler) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCartNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrTicketNotFound),
		errors.Is(err, service.ErrLineNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInsufficientStock):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrInvalidDateRange):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

func ok(c *gin.Context, status int, payload any) {
	c.JSON(status, gin.H{"status": "success", "payload": payload})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"status": "error", "message": message})
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
