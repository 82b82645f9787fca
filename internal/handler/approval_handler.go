package handler

import (
	"net/http"

	"claimdesk/internal/middleware"
	"claimdesk/internal/repository"
	"claimdesk/internal/workflow"
	"claimdesk/pkg/pagination"
	"claimdesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DecisionRequest struct {
	Comment string `json:"comment"`
	Reason  string `json:"reason"`
}

type ApprovalHandler struct {
	workflow *workflow.Workflow
	events   repository.ApprovalEventRepository
}

func NewApprovalHandler(wf *workflow.Workflow, events repository.ApprovalEventRepository) *ApprovalHandler {
	return &ApprovalHandler{workflow: wf, events: events}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	claims := router.Group("/api/claims")
	{
		claims.PUT("/:id/approve", middleware.RequireReviewer(), h.Approve)
		claims.PUT("/:id/reject", middleware.RequireReviewer(), h.Reject)
		claims.PUT("/:id/escalate", middleware.RequireReviewer(), h.Escalate)
	}
	events := router.Group("/api/approval-events")
	{
		events.GET("", middleware.RequireReviewer(), h.ListEvents)
		events.GET("/claim/:claimId", middleware.RequireAuth(), h.ListEventsByClaim)
	}
}

// Approve moves a pending claim to approved
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.decide(c, func(actor workflow.Actor, claimID uuid.UUID, req DecisionRequest) (any, error) {
		return h.workflow.Approve(c.Request.Context(), claimID, actor, req.Comment)
	})
}

// Reject moves a pending claim to rejected; the reason is mandatory
func (h *ApprovalHandler) Reject(c *gin.Context) {
	h.decide(c, func(actor workflow.Actor, claimID uuid.UUID, req DecisionRequest) (any, error) {
		return h.workflow.Reject(c.Request.Context(), claimID, actor, req.Reason)
	})
}

// Escalate bumps a pending claim to a higher authority level
func (h *ApprovalHandler) Escalate(c *gin.Context) {
	h.decide(c, func(actor workflow.Actor, claimID uuid.UUID, req DecisionRequest) (any, error) {
		return h.workflow.Escalate(c.Request.Context(), claimID, actor, req.Reason)
	})
}

func (h *ApprovalHandler) decide(c *gin.Context, run func(workflow.Actor, uuid.UUID, DecisionRequest) (any, error)) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid claim id"))
		return
	}

	actor, err := actorFromContext(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req DecisionRequest
	// Allow an empty body — approve needs no payload
	_ = c.ShouldBindJSON(&req)

	result, err := run(actor, claimID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListEvents returns the approval log, newest first
func (h *ApprovalHandler) ListEvents(c *gin.Context) {
	params := pagination.Parse(c)
	events, total, err := h.events.List(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   events,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// ListEventsByClaim returns the full transition history of one claim
func (h *ApprovalHandler) ListEventsByClaim(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("claimId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid claim id"))
		return
	}
	events, err := h.events.ListByClaim(c.Request.Context(), claimID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, events))
}
