package api

import (
	"github.com/gofiber/fiber/v2"
)

// Response is the envelope wrapping every API response
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Success renders a successful response with the given status
func Success(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// OK renders a 200 response carrying data
func OK(c *fiber.Ctx, data any) error {
	return Success(c, fiber.StatusOK, "", data)
}

// Created renders a 201 response
func Created(c *fiber.Ctx, message string, data any) error {
	return Success(c, fiber.StatusCreated, message, data)
}

// Message renders a 200 response without data
func Message(c *fiber.Ctx, message string) error {
	return Success(c, fiber.StatusOK, message, nil)
}

// Failure renders an error response
func Failure(c *fiber.Ctx, status int, message string, errs []string) error {
	return c.Status(status).JSON(Response{
		Success: false,
		Message: message,
		Errors:  errs,
	})
}
