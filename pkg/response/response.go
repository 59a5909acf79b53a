package response

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "estatechat/pkg/errors"
	"estatechat/pkg/logger"
)

type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ListResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}

func Success(c echo.Context, data interface{}) error {
	return write(c, http.StatusOK, data)
}

func Created(c echo.Context, data interface{}) error {
	return write(c, http.StatusCreated, data)
}

func List(c echo.Context, items interface{}, total int) error {
	return write(c, http.StatusOK, ListResponse{Items: items, Total: total})
}

func write(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func Error(c echo.Context, err error) error {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return handleValidationError(c, validationErr)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", "path", c.Path(), "code", appErr.Code, "error", err)
		}
		return c.JSON(appErr.Status, failure(appErr.Code, appErr.Message))
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg, _ := httpErr.Message.(string)
		if msg == "" {
			msg = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, failure(apperrors.CodeBadRequest, msg))
	}

	logger.Error("unexpected request failure", "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, failure(apperrors.CodeInternal, "An unexpected error occurred"))
}

func failure(code, message string) Response {
	return Response{
		Success:   false,
		Timestamp: now(),
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

func handleValidationError(c echo.Context, validationErr validator.ValidationErrors) error {
	message := "Invalid input data"
	if len(validationErr) > 0 {
		err := validationErr[0]
		field := strings.ToLower(err.Field())
		switch err.Tag() {
		case "required":
			message = field + " is required"
		case "max":
			message = field + " must be at most " + err.Param()
		case "oneof":
			message = field + " must be one of: " + err.Param()
		case "email":
			message = field + " must be a valid email address"
		case "url":
			message = field + " must be a valid URL"
		default:
			message = field + " is invalid"
		}
	}
	return c.JSON(http.StatusBadRequest, failure("VALIDATION_ERROR", message))
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
