package handlers

import (
	"errors"
	"fmt"

	"catalog/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps a use case error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case models.IsValidationError(err):
		return fiber.StatusBadRequest
	case models.IsNotFoundError(err):
		return fiber.StatusNotFound
	case models.IsConflictError(err):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func messageFor(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "Invalid product data"
	case fiber.StatusNotFound:
		return "Product not found"
	case fiber.StatusConflict:
		return "Product was modified concurrently, reload and retry"
	default:
		return "Internal server error"
	}
}

// respondError writes the JSON error body for err.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	return c.Status(status).JSON(fiber.Map{
		"message": messageFor(status),
		"error":   err.Error(),
	})
}

// respondValidation writes the field errors of a failed request validation.
func respondValidation(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// ErrorHandler renders errors that escape the handlers, including Fiber's
// own routing errors, as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
