package handler

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendingmachine/internal/ledger"
	"vendingmachine/internal/service"
	"vendingmachine/pkg/response"
)

// Handler holds the services behind the HTTP API.
type Handler struct {
	accountService  *service.AccountService
	productService  *service.ProductService
	purchaseService *service.PurchaseService
	orderService    *service.OrderService
}

func NewHandler(accounts *service.AccountService, products *service.ProductService,
	purchases *service.PurchaseService, orders *service.OrderService) *Handler {
	return &Handler{
		accountService:  accounts,
		productService:  products,
		purchaseService: purchases,
		orderService:    orders,
	}
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return page, pageSize
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "invalid id")
		return 0, false
	}
	return id, true
}

// ============================================================
// Users
// ============================================================

// Register
// POST /api/v1/users/register
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid parameters: "+err.Error())
		return
	}

	account, err := h.accountService.Register(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, account)
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login
// POST /api/v1/users/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid parameters: "+err.Error())
		return
	}

	token, err := h.accountService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"access_token": token})
}

// Me returns the caller's account.
// GET /api/v1/users/me
func (h *Handler) Me(c *gin.Context) {
	account, err := h.accountService.GetAccount(c.Request.Context(), principalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, account)
}

type DepositRequest struct {
	Deposit json.Number `json:"deposit" binding:"required"`
}

// Deposit inserts one coin.
// POST /api/v1/users/deposit
func (h *Handler) Deposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "deposit amount is required")
		return
	}

	// 7.5 or 1e3 is not a coin either
	amount, err := req.Deposit.Int64()
	if err != nil {
		fail(c, errors.Wrapf(ledger.ErrInvalidDenomination, "amount %s, accepted values are 5, 10, 20, 50 and 100", req.Deposit))
		return
	}

	account, err := h.accountService.Deposit(c.Request.Context(), principalFrom(c), amount)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, account)
}

// ResetDeposit
// POST /api/v1/users/reset-deposit
func (h *Handler) ResetDeposit(c *gin.Context) {
	account, err := h.accountService.ResetDeposit(c.Request.Context(), principalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, account)
}

type BuyRequest struct {
	ProductID int64  `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity"`
	Amount    int64  `json:"amount"` // older clients send the quantity as "amount"
	RequestID string `json:"request_id"`
}

// Buy
// POST /api/v1/users/buy
//
// request_id (or the Idempotency-Key header) makes the call safe to retry:
// a repeated id returns the first receipt without charging again.
func (h *Handler) Buy(c *gin.Context) {
	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "productId and quantity are required")
		return
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = req.Amount
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = c.GetHeader(headerIdempotency)
	}

	result, err := h.purchaseService.Buy(c.Request.Context(), principalFrom(c), &service.BuyRequest{
		ProductID: req.ProductID,
		Quantity:  quantity,
		RequestID: requestID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}

// ListTransactions
// GET /api/v1/users/transactions?page=1&page_size=10
func (h *Handler) ListTransactions(c *gin.Context) {
	page, pageSize := pagination(c)
	list, total, err := h.accountService.ListTransactions(c.Request.Context(), principalFrom(c), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":      list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ListPurchases
// GET /api/v1/users/purchases?page=1&page_size=10
func (h *Handler) ListPurchases(c *gin.Context) {
	page, pageSize := pagination(c)
	list, total, err := h.orderService.ListUserOrders(c.Request.Context(), principalFrom(c), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":      list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetPurchase
// GET /api/v1/users/purchases/:order_no
func (h *Handler) GetPurchase(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), principalFrom(c), c.Param("order_no"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, order)
}

// Logout revokes the presented token.
// POST /api/v1/users/logout
func (h *Handler) Logout(c *gin.Context) {
	if err := h.accountService.Logout(c.Request.Context(), claimsFrom(c)); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"message": "logged out"})
}

// ListUsers
// GET /api/v1/users?page=1&page_size=10
func (h *Handler) ListUsers(c *gin.Context) {
	page, pageSize := pagination(c)
	list, total, err := h.accountService.ListAccounts(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":      list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetUser
// GET /api/v1/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.accountService.GetUser(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateUser changes the caller's own username or password.
// PUT /api/v1/users/:id
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid parameters: "+err.Error())
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), principalFrom(c), id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, account)
}

// DeleteUser removes the caller's own account and ends the session.
// DELETE /api/v1/users/:id
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.accountService.DeleteAccount(ctx, principalFrom(c), id); err != nil {
		fail(c, err)
		return
	}
	if err := h.accountService.Logout(ctx, claimsFrom(c)); err != nil {
		zap.S().Warnf("[Account] revoke token after delete: %v", err)
	}
	response.Success(c, gin.H{"message": "user was deleted successfully"})
}

// ============================================================
// Products
// ============================================================

// ListProducts
// GET /api/v1/products?page=1&page_size=10
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := pagination(c)
	list, total, err := h.productService.List(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":      list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetProduct
// GET /api/v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, product)
}

// CreateProduct
// POST /api/v1/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid parameters: "+err.Error())
		return
	}

	product, err := h.productService.Create(c.Request.Context(), principalFrom(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, product)
}

// UpdateProduct
// PUT /api/v1/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid parameters: "+err.Error())
		return
	}

	product, err := h.productService.Update(c.Request.Context(), principalFrom(c), id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, product)
}

// DeleteProduct
// DELETE /api/v1/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), principalFrom(c), id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"message": "product was deleted successfully"})
}
