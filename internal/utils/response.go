package utils

import "github.com/gofiber/fiber/v2"

// Response is the JSON envelope of every API reply.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func CreatedResponse(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse writes a failure envelope. err is reported as a string when set.
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	resp := Response{
		Success: false,
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return c.Status(status).JSON(resp)
}

// ErrorDetailResponse writes a failure envelope with structured details.
func ErrorDetailResponse(c *fiber.Ctx, status int, message string, detail interface{}) error {
	return c.Status(status).JSON(Response{
		Success: false,
		Message: message,
		Error:   detail,
	})
}
