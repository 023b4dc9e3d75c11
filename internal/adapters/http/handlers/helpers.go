package handlers

import (
	"errors"
	"strconv"

	"sistema-vacunacion/internal/core/domain"
	"sistema-vacunacion/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// paramID parses a positive numeric route parameter
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryID parses an optional positive numeric query parameter
func queryID(c *fiber.Ctx, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, false
	}
	v := uint(id)
	return &v, true
}

// invalidInput answers 400 when err is a client input error
func invalidInput(c *fiber.Ctx, err error) (bool, error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return true, response.BadRequest(c, verr.Message)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidDoseLabel),
		errors.Is(err, domain.ErrInvalidSection),
		errors.Is(err, domain.ErrUnknownSection),
		errors.Is(err, domain.ErrInvalidInput):
		return true, response.BadRequest(c, err.Error())
	}
	return false, nil
}

func invalidID(c *fiber.Ctx) error {
	return response.BadRequest(c, "Invalid id")
}

func invalidBody(c *fiber.Ctx) error {
	return response.BadRequest(c, "Invalid request body")
}
