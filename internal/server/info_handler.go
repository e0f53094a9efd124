package server

import (
	"beatbox/internal/models"
	"beatbox/internal/serializer"

	"github.com/gofiber/fiber/v2"
	"gopkg.in/yaml.v3"
)

// Info handles GET /info
// @Summary Suggestion field metadata
// @Description Field schema of create requests and of responses. format=yaml renders YAML.
// @Tags meta
// @Produce json
// @Produce application/yaml
// @Param format query string false "json or yaml"
// @Success 200 {object} serializer.Info
// @Router /info/ [get]
func (s *Server) Info(c *fiber.Ctx) error {
	info := serializer.Metadata()

	switch c.Query("format", "json") {
	case "yaml", "yml":
		out, err := yaml.Marshal(info)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
		c.Set(fiber.HeaderContentType, "application/yaml; charset=utf-8")
		return c.Send(out)
	case "json":
		return c.JSON(info)
	default:
		return models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: "NOT_FOUND", Message: "Not found."})
	}
}
