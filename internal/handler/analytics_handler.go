package handler

import (
	"net/http"
	"strconv"

	"claimdesk/internal/analytics"
	"claimdesk/internal/middleware"
	"claimdesk/internal/model"
	"claimdesk/internal/service"
	"claimdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	aggregator *analytics.Aggregator
	budgets    service.BudgetService
}

func NewAnalyticsHandler(aggregator *analytics.Aggregator, budgets service.BudgetService) *AnalyticsHandler {
	return &AnalyticsHandler{aggregator: aggregator, budgets: budgets}
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/analytics")
	{
		group.GET("/departments", middleware.RequireReviewer(), h.DepartmentSummary)
		group.GET("/categories", middleware.RequireReviewer(), h.CategorySummary)
		group.GET("/employees", middleware.RequireReviewer(), h.EmployeeSummary)
		group.GET("/budget/:department", middleware.RequireReviewer(), h.BudgetUtilization)
		group.PUT("/budget/:department", middleware.RequireRole(model.RoleAdministrator), h.SetBudget)
		group.GET("/trend", middleware.RequireReviewer(), h.Trend)
	}
}

// DepartmentSummary returns per-department totals, descending by amount
func (h *AnalyticsHandler) DepartmentSummary(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.aggregator.DepartmentSummary()))
}

// CategorySummary returns per-category totals with the highest claim each
func (h *AnalyticsHandler) CategorySummary(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.aggregator.CategorySummary()))
}

// EmployeeSummary returns per-employee totals
func (h *AnalyticsHandler) EmployeeSummary(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.aggregator.EmployeeSummary()))
}

// BudgetUtilization reports spend against a department's allocation
func (h *AnalyticsHandler) BudgetUtilization(c *gin.Context) {
	util, err := h.aggregator.BudgetUtilization(c.Request.Context(), c.Param("department"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, util))
}

// SetBudget creates or replaces a department's allocation for the fiscal year
func (h *AnalyticsHandler) SetBudget(c *gin.Context) {
	var req service.SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}
	allocation, err := h.budgets.SetAllocation(c.Request.Context(), c.Param("department"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, allocation))
}

// Trend groups approved claims by calendar month over the requested window
func (h *AnalyticsHandler) Trend(c *gin.Context) {
	months, _ := strconv.Atoi(c.DefaultQuery("months", "6"))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.aggregator.Trend(months)))
}
