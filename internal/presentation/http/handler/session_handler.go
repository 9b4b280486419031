package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/registerd/internal/application/service"
	"github.com/sangkips/registerd/internal/presentation/http/dto/request"
	"github.com/sangkips/registerd/internal/presentation/http/dto/response"
)

// SessionHandler handles invoice session HTTP requests
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Open handles opening a new tab, blank or loaded from a stored invoice
func (h *SessionHandler) Open(c *gin.Context) {
	var req request.OpenSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	var session *service.InvoiceSession
	var err error
	if req.InvoiceID != nil {
		session, err = h.sessionService.OpenInvoice(c.Request.Context(), *req.InvoiceID)
	} else {
		session, err = h.sessionService.Open(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Session opened", session.Snapshot())
}

// List handles listing all open tabs
func (h *SessionHandler) List(c *gin.Context) {
	response.OK(c, "Sessions retrieved successfully", h.sessionService.List())
}

// Get handles retrieving one open tab
func (h *SessionHandler) Get(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.Get(sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Session retrieved successfully", session.Snapshot())
}

// UpsertLine handles creating or editing one invoice line
func (h *SessionHandler) UpsertLine(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := parseUUIDParam(c, "lineId")
	if !ok {
		return
	}

	var req request.UpsertLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	session, err := h.sessionService.UpsertLine(c.Request.Context(), sessionID, lineID, service.LineRequest{
		ItemID:       req.ItemID,
		ItemCode:     req.ItemCode,
		Barcode:      req.Barcode,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		TaxInclusive: req.TaxInclusive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Line updated", session.Snapshot())
}

// RemoveLine handles deleting one invoice line
func (h *SessionHandler) RemoveLine(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := parseUUIDParam(c, "lineId")
	if !ok {
		return
	}

	session, err := h.sessionService.RemoveLine(sessionID, lineID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Line removed", session.Snapshot())
}

// SetDiscount handles updating the invoice-level discount
func (h *SessionHandler) SetDiscount(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req request.SetDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	session, err := h.sessionService.SetDiscount(sessionID, req.Discount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Discount updated", session.Snapshot())
}

// SetCustomer handles attaching or detaching the draft customer
func (h *SessionHandler) SetCustomer(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req request.SetCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	session, err := h.sessionService.SetCustomer(c.Request.Context(), sessionID, req.CustomerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer updated", session.Snapshot())
}

// Checkout handles the commit pipeline for one tab
func (h *SessionHandler) Checkout(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req request.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.sessionService.Checkout(c.Request.Context(), sessionID, service.PaymentPlanInput{
		Mode:       req.Mode,
		Split:      req.Split,
		CashAmount: req.CashAmount,
		CardAmount: req.CardAmount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if !result.Committed {
		// credit limit overage awaiting interactive confirmation
		response.OK(c, "Approval required", result)
		return
	}
	response.Created(c, "Invoice committed", result)
}

// Approve handles re-attempting the commit after a credit-limit confirmation
func (h *SessionHandler) Approve(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.sessionService.Approve(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Invoice committed", result)
}

// Cancel handles abandoning a checkout in progress
func (h *SessionHandler) Cancel(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.Cancel(sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Checkout cancelled", session.Snapshot())
}

// Edit handles reopening a saved invoice for editing
func (h *SessionHandler) Edit(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.Edit(sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice reopened for editing", session.Snapshot())
}

// Close handles closing a tab, deleting its saved invoice if any. Closing the
// last tab returns the fresh replacement session.
func (h *SessionHandler) Close(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	replacement, err := h.sessionService.Close(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if replacement != nil {
		response.OK(c, "Session closed", replacement.Snapshot())
		return
	}
	response.NoContent(c)
}

// parseUUIDParam parses a UUID path parameter, writing the error response on
// failure.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}
