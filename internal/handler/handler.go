package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"binwahab-store/internal/apperror"
	"binwahab-store/internal/dto"
	"binwahab-store/internal/middleware"
	"binwahab-store/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator plugs go-playground/validator into echo. Failures come back as
// VALIDATION errors keyed by the JSON field path.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.Wrap(apperror.CodeValidation, err, "invalid request")
	}

	details := make([]apperror.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apperror.FieldError{Field: fieldPath(fe), Reason: reason(fe)})
	}
	return apperror.Validation("invalid request", details...)
}

// fieldPath drops the struct name from the namespace: "CreateOrderRequest.address.state"
// becomes "address.state".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_without":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "numeric", "hexadecimal", "iso3166_1_alpha2":
		return "has an invalid format"
	default:
		return "failed " + fe.Tag()
	}
}

// ErrorHandler renders every error as {"error": {"code", "message", "details"}}.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorBody(err)
		if status >= http.StatusInternalServerError {
			log.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", status,
				"error", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.ErrorContext(c.Request().Context(), "write error response", "error", err)
		}
	}
}

func errorBody(err error) (int, *dto.ErrorBody) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		status := apperror.HTTPStatus(appErr.Code)
		msg := appErr.Message
		if status == http.StatusInternalServerError {
			msg = "internal server error"
		}
		detail := dto.ErrorDetail{Code: string(appErr.Code), Message: msg}
		if len(appErr.Details) > 0 {
			detail.Details = appErr.Details
		}
		return status, &dto.ErrorBody{Error: detail}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, &dto.ErrorBody{Error: dto.ErrorDetail{
			Code:    string(codeForStatus(httpErr.Code)),
			Message: fmt.Sprint(httpErr.Message),
		}}
	}

	return http.StatusInternalServerError, &dto.ErrorBody{Error: dto.ErrorDetail{
		Code:    string(apperror.CodeInternal),
		Message: "internal server error",
	}}
}

func codeForStatus(status int) apperror.Code {
	switch status {
	case http.StatusUnauthorized:
		return apperror.CodeUnauthorized
	case http.StatusForbidden:
		return apperror.CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apperror.CodeNotFound
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return apperror.CodeValidation
	default:
		return apperror.CodeInternal
	}
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperror.Wrap(apperror.CodeValidation, err, "malformed request body")
	}
	return c.Validate(req)
}

func currentActor(c echo.Context) (model.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return model.Actor{}, apperror.New(apperror.CodeUnauthorized, "not authenticated")
	}
	return actor, nil
}

func idParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("invalid "+name,
			apperror.FieldError{Field: name, Reason: "must be a positive integer"})
	}
	return uint(id), nil
}

type page struct {
	limit  int
	offset int
}

func pageParams(c echo.Context) (page, error) {
	p := page{limit: 50}
	err := echo.QueryParamsBinder(c).
		Int("limit", &p.limit).
		Int("offset", &p.offset).
		BindError()
	if err != nil || p.limit < 1 || p.limit > 200 || p.offset < 0 {
		return page{}, apperror.Validation("invalid paging",
			apperror.FieldError{Field: "limit", Reason: "1..200, offset >= 0"})
	}
	return p, nil
}
