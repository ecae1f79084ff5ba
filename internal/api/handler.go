package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"loyalty-service/internal/ledger"
	"loyalty-service/internal/models"
	"loyalty-service/internal/service"
	"loyalty-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler contains HTTP handlers
type Handler struct {
	awardService      *service.AwardService
	redemptionService *service.RedemptionService
	offerService      *service.OfferService
	pickupService     *service.PickupService
	preorderService   *service.PreorderService
	badgeService      *service.BadgeService
	jwtSecret         string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	awardService *service.AwardService,
	redemptionService *service.RedemptionService,
	offerService *service.OfferService,
	pickupService *service.PickupService,
	preorderService *service.PreorderService,
	badgeService *service.BadgeService,
	jwtSecret string,
) *Handler {
	return &Handler{
		awardService:      awardService,
		redemptionService: redemptionService,
		offerService:      offerService,
		pickupService:     pickupService,
		preorderService:   preorderService,
		badgeService:      badgeService,
		jwtSecret:         jwtSecret,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware(h.jwtSecret))
	{
		v1.GET("/me/balance", h.getBalance)
		v1.GET("/me/claims", h.listClaims)
		v1.GET("/me/orders", h.listOrders)
		v1.GET("/me/preorders", h.listPreorders)
		v1.GET("/me/badges", h.listBadges)

		v1.GET("/rewards", h.listRewards)
		v1.POST("/rewards/:id/redeem", h.redeemReward)

		v1.GET("/offers", h.listOffers)
		v1.POST("/offers/:id/reserve", h.reserveOffer)

		v1.POST("/preorders", h.createPreorder)
		v1.GET("/preorders/:id", h.getPreorder)
	}

	admin := v1.Group("/admin")
	admin.Use(requireStaff())
	{
		admin.POST("/points/award", h.awardPoints)
		admin.POST("/customers/:id/points", h.adminAddPoints)

		admin.POST("/scan", h.scanCode)

		admin.POST("/orders/:id/cancel", h.cancelOrder)
		admin.POST("/orders/:id/pickup", h.pickupOrder)

		admin.GET("/preorders", h.listOpenPreorders)
		admin.POST("/preorders/:id/confirm", h.confirmPreorder)
		admin.POST("/preorders/:id/ready", h.readyPreorder)
		admin.POST("/preorders/:id/pickup", h.pickupPreorder)
		admin.POST("/preorders/:id/cancel", h.cancelPreorder)

		admin.POST("/rewards", h.createReward)
		admin.PUT("/rewards/:id", h.updateReward)
		admin.POST("/offers", h.createOffer)
		admin.PUT("/offers/:id", h.updateOffer)

		admin.PUT("/settings/conversion-rate", h.setConversionRate)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// awardPoints handles the scan-and-submit award flow
func (h *Handler) awardPoints(c *gin.Context) {
	var req service.AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if req.ScanToken == "" {
		req.ScanToken = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.awardService.AwardPoints(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// adminAddPoints is the dashboard quick-add path. It feeds the same award
// engine as the scan flow so there is no second unguarded mutation site.
func (h *Handler) adminAddPoints(c *gin.Context) {
	customerID, ok := pathID(c)
	if !ok {
		return
	}

	var body struct {
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	description := body.Description
	if description == "" {
		description = "manual adjustment"
	}

	resp, err := h.awardService.AwardPoints(c.Request.Context(), &service.AwardRequest{
		CustomerID:  customerID,
		Amount:      body.Amount,
		Description: description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// getBalance returns the caller's balance and ledger history
func (h *Handler) getBalance(c *gin.Context) {
	customer, transactions, err := h.awardService.GetBalance(c.Request.Context(), callerCustomerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer":     customer,
		"transactions": transactions,
	})
}

// listRewards returns the active reward catalog
func (h *Handler) listRewards(c *gin.Context) {
	rewards, err := h.redemptionService.ListRewards(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": rewards})
}

// redeemReward exchanges the caller's points for a reward
func (h *Handler) redeemReward(c *gin.Context) {
	rewardID, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := h.redemptionService.RedeemReward(c.Request.Context(), callerCustomerID(c), rewardID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// listClaims returns the caller's claims
func (h *Handler) listClaims(c *gin.Context) {
	claims, err := h.redemptionService.ListClaims(c.Request.Context(), callerCustomerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": claims})
}

// listOffers returns active offers
func (h *Handler) listOffers(c *gin.Context) {
	offers, err := h.offerService.ListOffers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// reserveOffer reserves units of a limited offer for the caller
func (h *Handler) reserveOffer(c *gin.Context) {
	offerID, ok := pathID(c)
	if !ok {
		return
	}

	var body struct {
		Quantity int `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.offerService.ReserveOffer(c.Request.Context(), callerCustomerID(c), offerID, body.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// listOrders returns the caller's orders
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.offerService.ListOrders(c.Request.Context(), callerCustomerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// createPreorder places a pickup request for the caller
func (h *Handler) createPreorder(c *gin.Context) {
	var req service.PreorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	preorder, err := h.preorderService.CreatePreorder(c.Request.Context(), callerCustomerID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, preorder)
}

// getPreorder returns one preorder with its items
func (h *Handler) getPreorder(c *gin.Context) {
	preorderID, ok := pathID(c)
	if !ok {
		return
	}

	preorder, items, err := h.preorderService.GetPreorder(c.Request.Context(), preorderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"preorder": preorder, "items": items})
}

// listPreorders returns the caller's preorders
func (h *Handler) listPreorders(c *gin.Context) {
	preorders, err := h.preorderService.ListPreorders(c.Request.Context(), callerCustomerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preorders": preorders})
}

// listBadges returns the caller's badges
func (h *Handler) listBadges(c *gin.Context) {
	badges, err := h.badgeService.ListBadges(c.Request.Context(), callerCustomerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

// scanCode dispatches a scanned claim or pickup code to its transition
func (h *Handler) scanCode(c *gin.Context) {
	var body struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.pickupService.TransitionByCode(c.Request.Context(), body.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// cancelOrder cancels a reserved order and restores stock
func (h *Handler) cancelOrder(c *gin.Context) {
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.offerService.CancelOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// pickupOrder completes a reserved order
func (h *Handler) pickupOrder(c *gin.Context) {
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.pickupService.MarkOrderPickedUp(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// listOpenPreorders returns the staff work queue
func (h *Handler) listOpenPreorders(c *gin.Context) {
	preorders, err := h.preorderService.ListOpenPreorders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preorders": preorders})
}

// confirmPreorder sets the staff-confirmed pickup time
func (h *Handler) confirmPreorder(c *gin.Context) {
	preorderID, ok := pathID(c)
	if !ok {
		return
	}

	var body struct {
		ConfirmedAt time.Time `json:"confirmed_at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	preorder, err := h.pickupService.ConfirmPreorder(c.Request.Context(), preorderID, body.ConfirmedAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preorder)
}

// readyPreorder marks a confirmed preorder ready for pickup
func (h *Handler) readyPreorder(c *gin.Context) {
	h.preorderTransition(c, h.pickupService.MarkPreorderReady)
}

// pickupPreorder completes a ready preorder
func (h *Handler) pickupPreorder(c *gin.Context) {
	h.preorderTransition(c, h.pickupService.MarkPreorderPickedUp)
}

// cancelPreorder cancels a non-terminal preorder
func (h *Handler) cancelPreorder(c *gin.Context) {
	h.preorderTransition(c, h.pickupService.CancelPreorder)
}

func (h *Handler) preorderTransition(c *gin.Context, fn func(ctx context.Context, preorderID int64) (*models.Preorder, error)) {
	preorderID, ok := pathID(c)
	if !ok {
		return
	}

	preorder, err := fn(c.Request.Context(), preorderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preorder)
}

// createReward creates a catalog reward
func (h *Handler) createReward(c *gin.Context) {
	var body struct {
		Name           string `json:"name" binding:"required"`
		Description    string `json:"description"`
		PointsRequired int64  `json:"points_required" binding:"required,min=1"`
		Active         bool   `json:"active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	reward := &models.Reward{
		Name:           body.Name,
		Description:    body.Description,
		PointsRequired: body.PointsRequired,
		Active:         body.Active,
	}
	if err := h.redemptionService.CreateReward(c.Request.Context(), reward); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reward)
}

// updateReward updates a catalog reward
func (h *Handler) updateReward(c *gin.Context) {
	rewardID, ok := pathID(c)
	if !ok {
		return
	}

	var body struct {
		Name           string `json:"name" binding:"required"`
		Description    string `json:"description"`
		PointsRequired int64  `json:"points_required" binding:"required,min=1"`
		Active         bool   `json:"active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	reward := &models.Reward{
		ID:             rewardID,
		Name:           body.Name,
		Description:    body.Description,
		PointsRequired: body.PointsRequired,
		Active:         body.Active,
	}
	if err := h.redemptionService.UpdateReward(c.Request.Context(), reward); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reward)
}

// createOffer creates a limited offer
func (h *Handler) createOffer(c *gin.Context) {
	var body offerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	offer := body.toModel(0)
	if err := h.offerService.CreateOffer(c.Request.Context(), offer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

// updateOffer updates staff-editable offer fields
func (h *Handler) updateOffer(c *gin.Context) {
	offerID, ok := pathID(c)
	if !ok {
		return
	}

	var body offerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	offer := body.toModel(offerID)
	if err := h.offerService.UpdateOffer(c.Request.Context(), offer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

type offerBody struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	LimitTotal  int             `json:"limit_total" binding:"required,min=1"`
	StartsAt    *time.Time      `json:"starts_at,omitempty"`
	EndsAt      *time.Time      `json:"ends_at,omitempty"`
	Active      bool            `json:"active"`
}

func (b *offerBody) toModel(id int64) *models.Offer {
	return &models.Offer{
		ID:          id,
		Title:       b.Title,
		Description: b.Description,
		ImageURL:    b.ImageURL,
		Price:       b.Price,
		LimitTotal:  b.LimitTotal,
		StartsAt:    b.StartsAt,
		EndsAt:      b.EndsAt,
		Active:      b.Active,
	}
}

// setConversionRate updates the points-per-currency rate
func (h *Handler) setConversionRate(c *gin.Context) {
	var body struct {
		Rate decimal.Decimal `json:"rate"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.awardService.SetConversionRate(c.Request.Context(), body.Rate); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rate": body.Rate})
}

// pathID parses the :id path parameter, responding 400 on garbage.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

// respondError maps ledger errors to HTTP statuses
func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrInvalidSetting):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrCustomerNotFound),
		errors.Is(err, ledger.ErrRewardNotFound),
		errors.Is(err, ledger.ErrOfferNotFound),
		errors.Is(err, ledger.ErrOrderNotFound),
		errors.Is(err, ledger.ErrPreorderNotFound),
		errors.Is(err, ledger.ErrProductNotFound),
		errors.Is(err, ledger.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateOperation),
		errors.Is(err, ledger.ErrInsufficientPoints),
		errors.Is(err, ledger.ErrSoldOut),
		errors.Is(err, ledger.ErrOfferNotAvailable),
		errors.Is(err, ledger.ErrRewardInactive),
		errors.Is(err, ledger.ErrProductInactive),
		errors.Is(err, ledger.ErrInvalidStateTransition),
		errors.Is(err, ledger.ErrAlreadyFulfilled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
