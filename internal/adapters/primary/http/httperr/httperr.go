package httperr

import (
	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/gin-gonic/gin"
)

// Response тело ошибки API, единое для контроллеров и middleware
type Response struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Abort прерывает запрос, выводя статус и тело из доменной ошибки.
// Нетипизированные ошибки отдаются как INTERNAL без подробностей
func Abort(ctx *gin.Context, err error) {
	typed, ok := domain.AsError(err)
	if !ok {
		ctx.AbortWithStatusJSON(domain.CodeInternal.HTTPStatus(), Response{
			Error:   string(domain.CodeInternal),
			Message: "internal server error",
		})
		return
	}

	ctx.AbortWithStatusJSON(typed.Code.HTTPStatus(), Response{
		Error:   string(typed.Code),
		Message: typed.Message,
		Detail:  typed.Detail,
	})
}

// AbortWith прерывает запрос с заданным кодом и сообщением
func AbortWith(ctx *gin.Context, code domain.ErrorCode, message string) {
	ctx.AbortWithStatusJSON(code.HTTPStatus(), Response{
		Error:   string(code),
		Message: message,
	})
}
