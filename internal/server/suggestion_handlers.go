package server

import (
	"strconv"

	"beatbox/internal/permission"
	"beatbox/internal/serializer"
	"beatbox/internal/service"

	"github.com/gofiber/fiber/v2"
)

const likeChangedHeader = "X-Like-Changed"

// SuggestionPage is the list response body.
type SuggestionPage struct {
	Next     *string                      `json:"next"`
	Previous *string                      `json:"previous"`
	Results  []*serializer.Representation `json:"results"`
}

// SuggestionInput documents the writable fields of a suggestion request body.
type SuggestionInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	State       string `json:"state" enums:"open,closed"`
}

// ListSuggestions handles GET /api/suggestions
// @Summary List suggestions
// @Description Newest first, cursor paginated, 100 per page
// @Tags suggestions
// @Produce json
// @Security BearerAuth
// @Param cursor query string false "Page cursor from next/previous"
// @Success 200 {object} SuggestionPage
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /suggestions/ [get]
func (s *Server) ListSuggestions(c *fiber.Ctx) error {
	page, err := s.suggestions.List(c.UserContext(), currentUserID(c), c.Query("cursor"))
	if err != nil {
		return respondError(c, err)
	}

	view := serializer.ViewFor(permission.OpList)
	return c.JSON(SuggestionPage{
		Next:     s.pageURL(c, page.Next),
		Previous: s.pageURL(c, page.Previous),
		Results:  serializer.EncodeAll(view, page.Items, s.serializerContext(c)),
	})
}

// CreateSuggestion handles POST /api/suggestions
// @Summary Create a suggestion
// @Tags suggestions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SuggestionInput true "Suggestion"
// @Success 201 {object} serializer.Representation
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /suggestions/ [post]
func (s *Server) CreateSuggestion(c *fiber.Ctx) error {
	view := serializer.ViewFor(permission.OpCreate)
	patch, err := serializer.Decode(view, c.Body())
	if err != nil {
		return respondError(c, err)
	}

	created, err := s.suggestions.Create(c.UserContext(), currentUserID(c), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(serializer.Encode(view, created, s.serializerContext(c)))
}

// GetSuggestion handles GET /api/suggestions/:id
// @Summary Get a suggestion
// @Tags suggestions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Suggestion ID"
// @Success 200 {object} serializer.Representation
// @Failure 404 {object} models.ErrorResponse
// @Router /suggestions/{id}/ [get]
func (s *Server) GetSuggestion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	sg, err := s.suggestions.Get(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(serializer.Encode(serializer.ViewFor(permission.OpRetrieve), sg, s.serializerContext(c)))
}

// UpdateSuggestion handles PUT /api/suggestions/:id
// @Summary Update a suggestion
// @Description Owner only. Every writable field is optional.
// @Tags suggestions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Suggestion ID"
// @Param request body SuggestionInput true "Fields to change"
// @Success 200 {object} serializer.Representation
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /suggestions/{id}/ [put]
func (s *Server) UpdateSuggestion(c *fiber.Ctx) error {
	return s.update(c, permission.OpUpdate)
}

// PartialUpdateSuggestion handles PATCH /api/suggestions/:id
// @Summary Partially update a suggestion
// @Tags suggestions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Suggestion ID"
// @Param request body SuggestionInput true "Fields to change"
// @Success 200 {object} serializer.Representation
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /suggestions/{id}/ [patch]
func (s *Server) PartialUpdateSuggestion(c *fiber.Ctx) error {
	return s.update(c, permission.OpPartialUpdate)
}

func (s *Server) update(c *fiber.Ctx, op permission.Operation) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	view := serializer.ViewFor(op)
	patch, err := serializer.Decode(view, c.Body())
	if err != nil {
		return respondError(c, err)
	}

	updated, err := s.suggestions.Update(c.UserContext(), currentUserID(c), id, op, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(serializer.Encode(view, updated, s.serializerContext(c)))
}

// DeleteSuggestion handles DELETE /api/suggestions/:id
// @Summary Delete a suggestion
// @Tags suggestions
// @Security BearerAuth
// @Param id path int true "Suggestion ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /suggestions/{id}/ [delete]
func (s *Server) DeleteSuggestion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.suggestions.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikeSuggestion handles POST /api/suggestions/:id/like
// @Summary Like a suggestion
// @Description Liking an already liked suggestion succeeds with X-Like-Changed: false
// @Tags suggestions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Suggestion ID"
// @Success 200 {object} serializer.Representation
// @Failure 404 {object} models.ErrorResponse
// @Router /suggestions/{id}/like/ [post]
func (s *Server) LikeSuggestion(c *fiber.Ctx) error {
	return s.toggleLike(c, permission.OpLike)
}

// UnlikeSuggestion handles POST /api/suggestions/:id/unlike
// @Summary Unlike a suggestion
// @Description Unliking a suggestion that is not liked succeeds with X-Like-Changed: false
// @Tags suggestions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Suggestion ID"
// @Success 200 {object} serializer.Representation
// @Failure 404 {object} models.ErrorResponse
// @Router /suggestions/{id}/unlike/ [post]
func (s *Server) UnlikeSuggestion(c *fiber.Ctx) error {
	return s.toggleLike(c, permission.OpUnlike)
}

func (s *Server) toggleLike(c *fiber.Ctx, op permission.Operation) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var res service.LikeResult
	if op == permission.OpLike {
		res, err = s.suggestions.Like(c.UserContext(), currentUserID(c), id)
	} else {
		res, err = s.suggestions.Unlike(c.UserContext(), currentUserID(c), id)
	}
	if err != nil {
		return respondError(c, err)
	}

	c.Set(likeChangedHeader, strconv.FormatBool(res.Changed))
	return c.JSON(serializer.Encode(serializer.ViewFor(op), res.Suggestion, s.serializerContext(c)))
}
