package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Nicksoucy/talentsecure-sub001/internal/http/middleware"
	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
	"github.com/Nicksoucy/talentsecure-sub001/internal/service"
)

type Handler struct {
	availability *service.AvailabilityService
	pricing      *service.PricingService
	orders       *service.OrderService
	catalogues   *service.CatalogueService
	log          zerolog.Logger
}

func NewHandler(
	availability *service.AvailabilityService,
	pricing *service.PricingService,
	orders *service.OrderService,
	catalogues *service.CatalogueService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		availability: availability,
		pricing:      pricing,
		orders:       orders,
		catalogues:   catalogues,
		log:          log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Share resolution is the only public route.
	router.GET("/catalogues/share/:token", h.resolveShare)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.GET("/availability", h.getAvailability)
	protected.GET("/pricing", h.getPricing)
	protected.PUT("/pricing", h.putPricing)
	protected.POST("/orders", h.createOrder)
	protected.GET("/orders", h.listOrders)
	protected.GET("/orders/export", h.exportOrders)
	protected.GET("/orders/:id", h.getOrder)
	protected.POST("/orders/:id/items", h.addItem)
	protected.PATCH("/orders/:id/items/:lineId", h.updateItem)
	protected.DELETE("/orders/:id/items/:lineId", h.removeItem)
	protected.POST("/orders/:id/submit", h.submitOrder)
	protected.POST("/orders/:id/cancel", h.cancelOrder)
	protected.POST("/orders/:id/status", h.advanceOrderStatus)
	protected.POST("/catalogues", h.createCatalogue)
	protected.GET("/catalogues/:id", h.getCatalogue)
	protected.POST("/catalogues/:id/share", h.shareCatalogue)
	protected.POST("/catalogues/:id/status", h.updateCatalogueStatus)
	protected.GET("/catalogues/:id/pdf", h.cataloguePDF)
}

func (h *Handler) getAvailability(c *gin.Context) {
	availability, err := h.availability.ForCity(c.Request.Context(), strings.TrimSpace(c.Query("city")), strings.TrimSpace(c.Query("province")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

func (h *Handler) getPricing(c *gin.Context) {
	tariff, err := h.pricing.Tariff(c.Request.Context(), strings.TrimSpace(c.Query("city")), strings.TrimSpace(c.Query("province")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tariff)
}

type putPricingRequest struct {
	City           string  `json:"city" binding:"required"`
	Province       string  `json:"province" binding:"required"`
	EvaluatedPrice float64 `json:"evaluatedPrice" binding:"required"`
	CVOnlyPrice    float64 `json:"cvOnlyPrice" binding:"required"`
}

func (h *Handler) putPricing(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req putPricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := model.PricingEntry{
		City:     strings.TrimSpace(req.City),
		Province: strings.TrimSpace(req.Province),
		Tariff: model.Tariff{
			EvaluatedPrice: req.EvaluatedPrice,
			CVOnlyPrice:    req.CVOnlyPrice,
		},
	}
	if err := h.pricing.SetEntry(c.Request.Context(), principal, entry); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) createOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	order, err := h.orders.Create(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderResponse(order))
}

func (h *Handler) listOrders(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var status *model.OrderStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := model.ParseOrderStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		status = &parsed
	}

	orders, err := h.orders.List(c.Request.Context(), principal, status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response := make([]gin.H, 0, len(orders))
	for i := range orders {
		response = append(response, orderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) getOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.orders.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

type addItemRequest struct {
	City     string `json:"city" binding:"required"`
	Province string `json:"province" binding:"required"`
	Tier     string `json:"tier" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	Notes    string `json:"notes"`
}

func (h *Handler) addItem(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tier, err := model.ParseTier(req.Tier)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tier"})
		return
	}

	result, err := h.orders.AddItem(c.Request.Context(), principal, id, service.AddItemInput{
		City:     strings.TrimSpace(req.City),
		Province: strings.TrimSpace(req.Province),
		Tier:     tier,
		Quantity: req.Quantity,
		Notes:    req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response := orderResponse(result.Order)
	if result.Advisory != nil {
		response["warning"] = gin.H{
			"code":      "INSUFFICIENT_AVAILABILITY",
			"shortfall": result.Advisory,
		}
	}
	c.JSON(http.StatusOK, response)
}

type updateItemRequest struct {
	Quantity *int    `json:"quantity"`
	Notes    *string `json:"notes"`
}

func (h *Handler) updateItem(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	lineID, err := uuid.Parse(c.Param("lineId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line id"})
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.UpdateItem(c.Request.Context(), principal, id, lineID, service.UpdateItemInput{
		Quantity: req.Quantity,
		Notes:    req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

func (h *Handler) removeItem(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	lineID, err := uuid.Parse(c.Param("lineId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line id"})
		return
	}

	order, err := h.orders.RemoveItem(c.Request.Context(), principal, id, lineID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

func (h *Handler) submitOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.orders.Submit(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

func (h *Handler) cancelOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

type advanceStatusRequest struct {
	Target     string `json:"target" binding:"required"`
	AdminNotes string `json:"adminNotes"`
}

func (h *Handler) advanceOrderStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req advanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := model.ParseOrderStatus(req.Target)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target status"})
		return
	}

	order, err := h.orders.AdvanceStatus(c.Request.Context(), principal, id, target, req.AdminNotes)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

func (h *Handler) exportOrders(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var status *model.OrderStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := model.ParseOrderStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		status = &parsed
	}

	result, err := h.orders.Export(c.Request.Context(), principal, status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

type createCatalogueRequest struct {
	Title         string                `json:"title" binding:"required"`
	ClientID      string                `json:"clientId" binding:"required"`
	OrderID       *string               `json:"orderId"`
	CandidateIDs  []string              `json:"candidateIds"`
	Inclusion     model.InclusionConfig `json:"inclusionConfig"`
	CustomMessage string                `json:"customMessage"`
	Restricted    bool                  `json:"isContentRestricted"`
}

func (h *Handler) createCatalogue(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createCatalogueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid clientId"})
		return
	}

	var orderID *uuid.UUID
	if req.OrderID != nil {
		parsed, err := uuid.Parse(*req.OrderID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid orderId"})
			return
		}
		orderID = &parsed
	}

	candidateIDs := make([]uuid.UUID, 0, len(req.CandidateIDs))
	for _, raw := range req.CandidateIDs {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid candidate id"})
			return
		}
		candidateIDs = append(candidateIDs, parsed)
	}

	catalogue, err := h.catalogues.Generate(c.Request.Context(), principal, service.GenerateCatalogueInput{
		Title:         req.Title,
		ClientID:      clientID,
		OrderID:       orderID,
		CandidateIDs:  candidateIDs,
		Inclusion:     req.Inclusion,
		CustomMessage: req.CustomMessage,
		Restricted:    req.Restricted,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, catalogueResponse(catalogue))
}

func (h *Handler) getCatalogue(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid catalogue id"})
		return
	}

	catalogue, err := h.catalogues.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogueResponse(catalogue))
}

func (h *Handler) shareCatalogue(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid catalogue id"})
		return
	}

	share, err := h.catalogues.Share(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shareToken": share.Token, "shareUrl": share.URL})
}

type catalogueStatusRequest struct {
	Target string `json:"target" binding:"required"`
}

func (h *Handler) updateCatalogueStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid catalogue id"})
		return
	}

	var req catalogueStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := model.ParseCatalogueStatus(req.Target)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target status"})
		return
	}

	catalogue, err := h.catalogues.UpdateStatus(c.Request.Context(), principal, id, target)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogueResponse(catalogue))
}

func (h *Handler) cataloguePDF(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid catalogue id"})
		return
	}

	result, err := h.catalogues.RenderPDF(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) resolveShare(c *gin.Context) {
	shared, err := h.catalogues.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, shared)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var availabilityErr *service.AvailabilityError
	switch {
	case errors.As(err, &availabilityErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "INSUFFICIENT_AVAILABILITY",
			"shortfalls": availabilityErr.Shortfalls,
		})
	case errors.Is(err, service.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": "CONCURRENT_MODIFICATION"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "INVALID_TRANSITION", "detail": err.Error()})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "detail": err.Error()})
	case errors.Is(err, service.ErrEmptySelection):
		c.JSON(http.StatusBadRequest, gin.H{"error": "EMPTY_SELECTION"})
	case errors.Is(err, service.ErrCandidateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "CANDIDATE_NOT_FOUND", "detail": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "PERMISSION_DENIED"})
	case errors.Is(err, service.ErrUpstreamUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "UPSTREAM_UNAVAILABLE"})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func orderResponse(order *model.Order) gin.H {
	lines := make([]gin.H, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, gin.H{
			"id":         line.ID,
			"city":       line.City,
			"province":   line.Province,
			"tier":       line.Tier,
			"quantity":   line.Quantity,
			"unitPrice":  line.UnitPrice,
			"totalPrice": line.TotalPrice,
			"notes":      line.Notes,
		})
	}
	return gin.H{
		"id":          order.ID,
		"clientId":    order.ClientID,
		"status":      order.Status,
		"items":       lines,
		"totalAmount": order.TotalAmount,
		"adminNotes":  order.AdminNotes,
		"createdAt":   order.CreatedAt,
		"updatedAt":   order.UpdatedAt,
	}
}

func catalogueResponse(catalogue *model.Catalogue) gin.H {
	items := make([]gin.H, 0, len(catalogue.Items))
	for _, item := range catalogue.Items {
		items = append(items, gin.H{
			"id":       item.ID,
			"snapshot": item.Snapshot,
		})
	}
	response := gin.H{
		"id":                  catalogue.ID,
		"title":               catalogue.Title,
		"clientId":            catalogue.ClientID,
		"items":               items,
		"customMessage":       catalogue.CustomMessage,
		"inclusionConfig":     catalogue.Inclusion,
		"status":              catalogue.Status,
		"isContentRestricted": catalogue.IsContentRestricted,
		"createdAt":           catalogue.CreatedAt,
	}
	if catalogue.OrderID != nil {
		response["orderId"] = catalogue.OrderID
	}
	if catalogue.ShareToken != nil {
		response["shareToken"] = catalogue.ShareToken
	}
	return response
}
