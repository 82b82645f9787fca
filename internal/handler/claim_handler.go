package handler

import (
	"net/http"
	"time"

	"claimdesk/internal/apperr"
	"claimdesk/internal/middleware"
	"claimdesk/internal/model"
	"claimdesk/internal/refresh"
	"claimdesk/internal/store"
	"claimdesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type AttachmentInput struct {
	URL         string `json:"url" binding:"required"`
	FileName    string `json:"file_name"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentType string `json:"content_type"`
}

type CreateClaimRequest struct {
	Amount      string            `json:"amount" binding:"required"` // Decimal string
	Currency    string            `json:"currency"`
	TaxAmount   *string           `json:"tax_amount"` // Omit to derive from the configured rate
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Vendor      string            `json:"vendor"`
	ExpenseDate string            `json:"expense_date" binding:"required"` // YYYY-MM-DD
	Attachments []AttachmentInput `json:"attachments"`
	Draft       bool              `json:"draft"`
	Department  string            `json:"department"`
}

type UpdateClaimRequest struct {
	Amount      *string `json:"amount"`
	TaxAmount   *string `json:"tax_amount"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Vendor      *string `json:"vendor"`
	Department  *string `json:"department"`
	ExpenseDate *string `json:"expense_date"`
}

type ClaimHandler struct {
	store       *store.Store
	coordinator *refresh.Coordinator
}

func NewClaimHandler(st *store.Store, coordinator *refresh.Coordinator) *ClaimHandler {
	return &ClaimHandler{store: st, coordinator: coordinator}
}

func (h *ClaimHandler) RegisterRoutes(router *gin.RouterGroup) {
	claims := router.Group("/api/claims")
	{
		claims.POST("", middleware.RequireAuth(), h.CreateClaim)
		claims.GET("", middleware.RequireReviewer(), h.ListClaims)
		claims.GET("/:id", middleware.RequireAuth(), h.GetClaim)
		claims.GET("/employee/:employeeId", middleware.RequireAuth(), h.ListByEmployee)
		claims.PATCH("/:id", middleware.RequireAuth(), h.UpdateClaim)
		claims.DELETE("/:id", middleware.RequireAuth(), h.RemoveClaim)
	}
}

// CreateClaim submits a new expense claim for the authenticated employee
func (h *ClaimHandler) CreateClaim(c *gin.Context) {
	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	input, err := h.buildCreateInput(c, req)
	if err != nil {
		respondError(c, err)
		return
	}

	claim, err := h.store.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	// Cover dashboards that subscribe after the create event already fired.
	h.coordinator.AnnounceSubmission(claim.ID.String())

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, claim))
}

// ListClaims returns claims matching the optional department/status/category filters
func (h *ClaimHandler) ListClaims(c *gin.Context) {
	filter := store.Filter{
		Department:    c.Query("department"),
		Status:        c.Query("status"),
		Category:      c.Query("category"),
		EscalatedOnly: c.Query("escalated") == "true",
	}
	claims := h.store.ListByFilter(filter)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, claims))
}

// GetClaim returns one claim by id
func (h *ClaimHandler) GetClaim(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid claim id"))
		return
	}

	claim, err := h.store.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, claim))
}

// ListByEmployee returns every claim owned by the given employee
func (h *ClaimHandler) ListByEmployee(c *gin.Context) {
	employeeID, err := uuid.Parse(c.Param("employeeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid employee id"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.store.ListByEmployee(employeeID)))
}

// UpdateClaim merges a patch onto the stored claim
func (h *ClaimHandler) UpdateClaim(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid claim id"))
		return
	}

	var req UpdateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	patch, err := buildPatch(req)
	if err != nil {
		respondError(c, err)
		return
	}

	claim, err := h.store.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, claim))
}

// RemoveClaim deletes a claim
func (h *ClaimHandler) RemoveClaim(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid claim id"))
		return
	}

	if err := h.store.Remove(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"removed": id.String()}))
}

// --- Helpers ---

func (h *ClaimHandler) buildCreateInput(c *gin.Context, req CreateClaimRequest) (store.CreateClaimInput, error) {
	var violations []apperr.FieldViolation

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		violations = append(violations, apperr.FieldViolation{Field: "amount", Reason: "is not a valid decimal"})
	}

	var taxAmount *decimal.Decimal
	if req.TaxAmount != nil {
		parsed, taxErr := decimal.NewFromString(*req.TaxAmount)
		if taxErr != nil {
			violations = append(violations, apperr.FieldViolation{Field: "tax_amount", Reason: "is not a valid decimal"})
		} else {
			taxAmount = &parsed
		}
	}

	expenseDate, err := time.Parse("2006-01-02", req.ExpenseDate)
	if err != nil {
		violations = append(violations, apperr.FieldViolation{Field: "expense_date", Reason: "must be YYYY-MM-DD"})
	}

	employeeID, err := uuid.Parse(c.GetString(middleware.CtxUserID))
	if err != nil {
		violations = append(violations, apperr.FieldViolation{Field: "employee_id", Reason: "is missing from the session"})
	}

	if len(violations) > 0 {
		return store.CreateClaimInput{}, apperr.Validation(violations...)
	}

	attachments := make([]model.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, model.Attachment{
			URL:         a.URL,
			FileName:    a.FileName,
			SizeBytes:   a.SizeBytes,
			ContentType: a.ContentType,
		})
	}

	return store.CreateClaimInput{
		EmployeeID:   employeeID,
		EmployeeName: c.GetString(middleware.CtxUserName),
		Department:   req.Department,
		Amount:       amount,
		Currency:     req.Currency,
		TaxAmount:    taxAmount,
		Category:     req.Category,
		Description:  req.Description,
		Vendor:       req.Vendor,
		ExpenseDate:  expenseDate,
		Attachments:  attachments,
		Draft:        req.Draft,
	}, nil
}

func buildPatch(req UpdateClaimRequest) (store.UpdatePatch, error) {
	var patch store.UpdatePatch
	var violations []apperr.FieldViolation

	if req.Amount != nil {
		parsed, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			violations = append(violations, apperr.FieldViolation{Field: "amount", Reason: "is not a valid decimal"})
		} else {
			patch.Amount = &parsed
		}
	}
	if req.TaxAmount != nil {
		parsed, err := decimal.NewFromString(*req.TaxAmount)
		if err != nil {
			violations = append(violations, apperr.FieldViolation{Field: "tax_amount", Reason: "is not a valid decimal"})
		} else {
			patch.TaxAmount = &parsed
		}
	}
	if req.ExpenseDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.ExpenseDate)
		if err != nil {
			violations = append(violations, apperr.FieldViolation{Field: "expense_date", Reason: "must be YYYY-MM-DD"})
		} else {
			patch.ExpenseDate = &parsed
		}
	}
	patch.Category = req.Category
	patch.Description = req.Description
	patch.Vendor = req.Vendor
	patch.Department = req.Department

	if len(violations) > 0 {
		return store.UpdatePatch{}, apperr.Validation(violations...)
	}
	return patch, nil
}
