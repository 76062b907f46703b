package controllers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Upper bound for provider and store calls made while serving one request.
const requestTimeout = 15 * time.Second

const msgStoreUnavailable = "Document store unavailable."

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func received(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

// queryLookup adapts fiber's query accessor to a plain key lookup.
func queryLookup(c *fiber.Ctx) func(string) string {
	return func(key string) string {
		return c.Query(key)
	}
}

// invalidRequestMessage maps a request DTO validation error to the message
// returned to the client. uid is the already trimmed request uid.
func invalidRequestMessage(uid string, err error) string {
	if uid == "" {
		return "Missing uid in request body."
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Field() {
		case "UID":
			return "Invalid uid."
		case "Email":
			return "Invalid email address."
		case "PriceID":
			return "Invalid priceId."
		}
	}
	return "Invalid request body."
}
