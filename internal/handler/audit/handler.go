package audit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/audit"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/authz"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	audit := r.Group("/audit")
	{
		audit.GET("/logs", h.ListLogs)
		audit.GET("/logs/entity/:type/:id", h.GetEntityLogs)
	}
}

type logQuery struct {
	EntityType string `form:"entity_type"`
	EntityID   string `form:"entity_id"`
	UserID     string `form:"user_id"`
	model.Pagination
}

func parseOptionalID(raw, name string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Validationf("invalid %s", name)
	}
	return id, nil
}

func (h *Handler) ListLogs(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	if err := authz.RequireAdmin(actor); err != nil {
		handler.Fail(c, err)
		return
	}

	var q logQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handler.Fail(c, apperrors.Validation("invalid query", err))
		return
	}
	entityID, err := parseOptionalID(q.EntityID, "entity_id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	userID, err := parseOptionalID(q.UserID, "user_id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	logs, err := h.service.List(c.Request.Context(), model.AuditFilter{
		EntityType: q.EntityType,
		EntityID:   entityID,
		UserID:     userID,
		Pagination: q.Pagination,
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, logs)
}

func (h *Handler) GetEntityLogs(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	if err := authz.RequireAdmin(actor); err != nil {
		handler.Fail(c, err)
		return
	}
	entityID, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	logs, err := h.service.List(c.Request.Context(), model.AuditFilter{
		EntityType: c.Param("type"),
		EntityID:   entityID,
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, logs)
}
