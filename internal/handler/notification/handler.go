package notification

import (
	"github.com/gin-gonic/gin"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	notificationService "github.com/kethan23/build-buddy-app-766-sub000/internal/service/notification"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

type Handler struct {
	service *notificationService.Service
}

func NewHandler(service *notificationService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.POST("/:id/read", h.MarkRead)
	}
}

// List returns the caller's inbox, newest first.
func (h *Handler) List(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		handler.Fail(c, apperrors.Validation("invalid query", err))
		return
	}
	list, err := h.service.ListForUser(c.Request.Context(), actor.ID, page)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, list)
}

func (h *Handler) MarkRead(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), id, actor.ID); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, gin.H{"id": id, "is_read": true})
}
