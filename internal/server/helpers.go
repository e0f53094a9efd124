package server

import (
	"errors"
	"net/url"
	"strings"

	"beatbox/internal/models"
	"beatbox/internal/serializer"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten signals that a helper already committed the response.
// Handlers return nil when they see it so the ErrorHandler does not overwrite it.
var errResponseWritten = errors.New("response already written")

// parseID extracts a positive numeric route parameter. Anything else cannot
// name a suggestion, so it is answered with 404.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: "NOT_FOUND", Message: "Not found."})
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// currentUserID returns the user set by AuthRequired, or 0.
func currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

// baseURL is the scheme and host hyperlinks are built from.
func (s *Server) baseURL(c *fiber.Ctx) string {
	if s.config.PublicBaseURL != "" {
		return strings.TrimRight(s.config.PublicBaseURL, "/")
	}
	return c.BaseURL()
}

func (s *Server) serializerContext(c *fiber.Ctx) serializer.Context {
	return serializer.Context{UserID: currentUserID(c), BaseURL: s.baseURL(c)}
}

// pageURL returns the current list URL with cursor set, or nil when token is empty.
func (s *Server) pageURL(c *fiber.Ctx, token string) *string {
	if token == "" {
		return nil
	}
	q := url.Values{}
	q.Set("cursor", token)
	u := s.baseURL(c) + c.Path() + "?" + q.Encode()
	return &u
}

// respondError writes err with the status it maps to.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}
