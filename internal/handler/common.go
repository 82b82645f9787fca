package handler

import (
	"claimdesk/internal/apperr"
	"claimdesk/internal/middleware"
	"claimdesk/internal/workflow"
	"claimdesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps a taxonomy error to its HTTP status and envelope.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}

// actorFromContext rebuilds the workflow actor from the auth middleware's
// context keys.
func actorFromContext(c *gin.Context) (workflow.Actor, error) {
	id, err := uuid.Parse(c.GetString(middleware.CtxUserID))
	if err != nil {
		return workflow.Actor{}, apperr.Validation(apperr.FieldViolation{Field: "actor", Reason: "session carries no valid user id"})
	}
	return workflow.Actor{
		ID:   id,
		Name: c.GetString(middleware.CtxUserName),
		Role: c.GetString(middleware.CtxUserRole),
	}, nil
}
