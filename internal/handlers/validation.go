package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/charlesng35/taskhub/pkg/errors"
	"github.com/charlesng35/taskhub/pkg/response"
	"github.com/charlesng35/taskhub/pkg/validator"
)

// bindAndValidate decodes the JSON body into T and runs struct validation.
// It writes the 400 response itself; callers bail out when ok is false.
func bindAndValidate[T any](c *gin.Context) (*T, bool) {
	var payload T
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid request payload"))
		return nil, false
	}

	if err := validator.ValidateStruct(&payload); err != nil {
		response.Error(c, formatValidationError(err))
		return nil, false
	}

	return &payload, true
}

func formatValidationError(err error) *apperrors.AppError {
	var failures validator.ValidationErrors
	if errors.As(err, &failures) && len(failures) > 0 {
		return apperrors.NewBadRequest(failures.Error())
	}
	return apperrors.NewBadRequest("invalid request payload")
}
