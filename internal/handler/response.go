package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/authz"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message, code string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
		Code:    code,
	}
}

// ErrorBody maps err onto a status and envelope. Internal details never
// reach the client.
func ErrorBody(err error) (int, *Response) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	return appErr.HTTPStatus(), NewErrorResponse(appErr.Message, appErr.Code.String())
}

// Fail hands err to the error middleware and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, NewSuccessResponse(data))
}

// Actor returns the caller stored by the auth middleware.
func Actor(c *gin.Context) (model.Actor, bool) {
	actor, ok := authz.ActorFrom(c.Request.Context())
	if !ok {
		Fail(c, apperrors.Unauthorized(nil))
	}
	return actor, ok
}

// ParamID parses the named path parameter as a uuid.
func ParamID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		Fail(c, apperrors.Validationf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON decodes the request body or fails with a validation error.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Fail(c, apperrors.Validation("invalid request body: "+err.Error(), err))
		return false
	}
	return true
}
