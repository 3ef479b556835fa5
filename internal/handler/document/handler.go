package document

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	documentService "github.com/kethan23/build-buddy-app-766-sub000/internal/service/document"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

type Handler struct {
	service *documentService.Service
}

func NewHandler(service *documentService.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the document routes. upload wraps only the upload
// endpoint so it can carry a larger body limit.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, upload ...gin.HandlerFunc) {
	docs := r.Group("/documents")
	{
		docs.POST("", append(upload, h.Upload)...)
		docs.GET("", h.List)
		docs.GET("/:id", h.Get)
		docs.PUT("/:id/status", h.SetStatus)
	}
}

func ownerParam(c *gin.Context, actor model.Actor) (uuid.UUID, bool) {
	raw := c.Query("owner_id")
	if raw == "" {
		raw = c.PostForm("owner_id")
	}
	if raw == "" {
		return actor.ID, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		handler.Fail(c, apperrors.Validationf("invalid owner_id"))
		return uuid.Nil, false
	}
	return id, true
}

// Upload accepts multipart/form-data with a "file" part.
func (h *Handler) Upload(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	owner, ok := ownerParam(c, actor)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		handler.Fail(c, apperrors.Validation("file is required", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		handler.Fail(c, apperrors.Validation("unreadable file", err))
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		handler.Fail(c, apperrors.Validation("unreadable file", err))
		return
	}

	doc, err := h.service.Upload(c.Request.Context(), actor, &model.UploadDocumentInput{
		OwnerID:      owner,
		DocumentType: c.PostForm("document_type"),
		Category:     c.PostForm("category"),
		Description:  c.PostForm("description"),
		FileName:     fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
		Content:      content,
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Created(c, doc)
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	owner, ok := ownerParam(c, actor)
	if !ok {
		return
	}
	docs, err := h.service.ListByOwner(c.Request.Context(), actor, owner)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, docs)
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, doc)
}

type statusRequest struct {
	Status model.DocumentStatus `json:"status" binding:"required"`
}

func (h *Handler) SetStatus(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.SetStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, doc)
}
