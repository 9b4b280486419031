package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/registerd/internal/application/service"
	"github.com/sangkips/registerd/internal/presentation/http/dto/response"
)

// LookupHandler handles read-only reference data requests
type LookupHandler struct {
	lookupService *service.LookupService
}

// NewLookupHandler creates a new lookup handler
func NewLookupHandler(lookupService *service.LookupService) *LookupHandler {
	return &LookupHandler{lookupService: lookupService}
}

// LookupItems handles item lookup by code, barcode or name search
func (h *LookupHandler) LookupItems(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	items, err := h.lookupService.LookupItem(
		c.Request.Context(),
		c.Query("code"),
		c.Query("barcode"),
		c.Query("search"),
		limit,
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Items retrieved successfully", items)
}

// CustomerCredit handles retrieving a customer's balance and credit limit
func (h *LookupHandler) CustomerCredit(c *gin.Context) {
	customerID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	customer, err := h.lookupService.CustomerCredit(c.Request.Context(), customerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer retrieved successfully", customer)
}

// FinancialSettings handles retrieving the company financial settings
func (h *LookupHandler) FinancialSettings(c *gin.Context) {
	settings, err := h.lookupService.FinancialSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Settings retrieved successfully", settings)
}
