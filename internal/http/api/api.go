package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/vantage/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func BadRequest(msg string) *APIError { return &APIError{Code: http.StatusBadRequest, Message: msg} }
func Forbidden() *APIError { return &APIError{Code: http.StatusForbidden, Message: "forbidden"} }
func NotFound(what string) *APIError { return &APIError{Code: http.StatusNotFound, Message: what + " not found"} }
func Internal(msg string) *APIError { return &APIError{Code: http.StatusInternalServerError, Message: msg} }

// Response lets a handler pick a status other than 200. A nil Body writes
// only the status, as for 304.
type Response struct {
	Code int
	Body any
}

func Created(body any) Response { return Response{Code: http.StatusCreated, Body: body} }

type HandlerFuncWithAuth func(ctx *gin.Context, user *model.User) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := middleware.GetCurrentUser(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		result, apiErr := h(ctx, user)
		render(ctx, result, apiErr)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		render(ctx, result, apiErr)
	}
}

func render(ctx *gin.Context, result any, apiErr *APIError) {
	if apiErr != nil {
		ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
		return
	}

	if resp, ok := result.(Response); ok {
		if resp.Body == nil {
			ctx.Status(resp.Code)
			return
		}
		ctx.JSON(resp.Code, resp.Body)
		return
	}

	ctx.JSON(http.StatusOK, result)
}
