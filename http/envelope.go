package http

import "github.com/gofiber/fiber/v2"

// Envelope wraps every API response body except login and 204s. Matches
// the shape clients already parse.
type Envelope struct {
	StatusCode    int      `json:"statusCode"`
	IsSuccess     bool     `json:"isSuccess"`
	Result        any      `json:"result"`
	ErrorMessages []string `json:"errorMessages"`
}

func respond(c *fiber.Ctx, status int, result any) error {
	return c.Status(status).JSON(Envelope{
		StatusCode:    status,
		IsSuccess:     true,
		Result:        result,
		ErrorMessages: []string{},
	})
}

func fail(c *fiber.Ctx, status int, messages ...string) error {
	if messages == nil {
		messages = []string{}
	}
	return c.Status(status).JSON(Envelope{
		StatusCode:    status,
		IsSuccess:     false,
		ErrorMessages: messages,
	})
}
