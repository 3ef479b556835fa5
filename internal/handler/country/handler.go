package country

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	countryService "github.com/kethan23/build-buddy-app-766-sub000/internal/service/country"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

type Handler struct {
	service *countryService.Service
}

func NewHandler(service *countryService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	countries := r.Group("/countries")
	{
		countries.GET("", h.ListCountries)
		countries.GET("/:code", h.GetCountry)
		countries.POST("", h.CreateCountry)
		countries.PUT("/:id", h.UpdateCountry)
		countries.DELETE("/:id", h.DeactivateCountry)
	}
}

// ListCountries returns active requirements unless ?active=false.
func (h *Handler) ListCountries(c *gin.Context) {
	activeOnly := true
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			handler.Fail(c, apperrors.Validationf("active must be a boolean"))
			return
		}
		activeOnly = v
	}

	list, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, list)
}

func (h *Handler) GetCountry(c *gin.Context) {
	rec, err := h.service.GetActive(c.Request.Context(), c.Param("code"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, rec)
}

func (h *Handler) CreateCountry(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.CountryRequirementRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Created(c, rec)
}

func (h *Handler) UpdateCountry(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.CountryRequirementRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, rec)
}

func (h *Handler) DeactivateCountry(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), actor, id); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, gin.H{"id": id, "is_active": false})
}
