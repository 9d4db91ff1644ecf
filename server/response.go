package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/scribe/errors"
)

// RespondWithError writes err as an ErrorResponse. Errors that are not
// AppErrors become a 500 INTERNAL_ERROR.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	c.JSON(appErr.Status(), appErr.ToResponse())
}

// RespondOK writes data as the whole body, without an envelope.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}
