package validator

import (
	"career-royale/internal/pkg/xerrors"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/labstack/echo/v4"
)

// CustomValidator wraps go-playground validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
// Failures are returned as *xerrors.AppError so the error middleware renders them
// with the standard envelope.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		details := TranslateValidationErrors(err)
		if len(details) == 0 {
			return xerrors.NewValidationError("request", err.Error())
		}
		appErr := xerrors.NewValidationError(details[0].Field, details[0].Message)
		appErr.Err = err
		return appErr.WithMetadata("errors", details)
	}
	return nil
}

// New creates a new custom validator instance
func New() echo.Validator {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)

	return &CustomValidator{
		validator: v,
	}
}
