package application

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/letter"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/workflow"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

type Handler struct {
	workflow *workflow.Service
	letters  *letter.Service
}

func NewHandler(workflowSvc *workflow.Service, letterSvc *letter.Service) *Handler {
	return &Handler{workflow: workflowSvc, letters: letterSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	apps := r.Group("/visa-applications")
	{
		apps.POST("", h.Submit)
		apps.GET("", h.List)
		apps.GET("/:id", h.Get)
		apps.POST("/:id/advance", h.Advance)
		apps.POST("/:id/reject", h.Reject)
		apps.POST("/:id/approve", h.Approve)
		apps.POST("/:id/letter", h.GenerateLetter)
		apps.POST("/:id/letter/verify", h.VerifyLetter)
		apps.GET("/:id/history", h.History)
		apps.GET("/:id/checklist", h.Checklist)
	}
}

func (h *Handler) Submit(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.SubmitApplicationRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	app, err := h.workflow.Submit(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Created(c, app)
}

type listQuery struct {
	Stage  string `form:"stage"`
	Status string `form:"status"`
	model.Pagination
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handler.Fail(c, apperrors.Validation("invalid query", err))
		return
	}

	apps, err := h.workflow.List(c.Request.Context(), actor, model.ApplicationFilter{
		Stage:      model.WorkflowStage(q.Stage),
		Status:     model.ApplicationStatus(q.Status),
		Pagination: q.Pagination,
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, apps)
}

func (h *Handler) target(c *gin.Context) (model.Actor, uuid.UUID, bool) {
	actor, ok := handler.Actor(c)
	if !ok {
		return model.Actor{}, uuid.Nil, false
	}
	id, ok := handler.ParamID(c, "id")
	return actor, id, ok
}

func (h *Handler) Get(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	detail, err := h.workflow.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, detail)
}

func (h *Handler) Advance(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	var req model.AdvanceRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	app, err := h.workflow.Advance(c.Request.Context(), actor, id, req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, app)
}

func (h *Handler) Reject(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	var req model.RejectRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	app, err := h.workflow.Reject(c.Request.Context(), actor, id, req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, app)
}

func (h *Handler) Approve(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	app, err := h.workflow.Approve(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, app)
}

func (h *Handler) GenerateLetter(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	var in letter.GenerateLetterInput
	if !handler.BindJSON(c, &in) {
		return
	}
	in.ApplicationID = id

	doc, err := h.letters.Generate(c.Request.Context(), actor, in)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Created(c, doc)
}

func (h *Handler) VerifyLetter(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	app, err := h.workflow.VerifyLetter(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, app)
}

func (h *Handler) History(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	entries, err := h.workflow.History(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, entries)
}

func (h *Handler) Checklist(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	status, err := h.workflow.Checklist(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, status)
}
