package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/person-admin/internal/api/dto"
	"github.com/spec-kit/person-admin/internal/queryapi"
	apperrors "github.com/spec-kit/person-admin/pkg/util/errorutil"
)

// PeopleHandler serves the people query API.
type PeopleHandler struct {
	people queryapi.Querier
}

// NewPeopleHandler constructs handler.
func NewPeopleHandler(people queryapi.Querier) *PeopleHandler {
	return &PeopleHandler{people: people}
}

// List GET /api/people.
func (h *PeopleHandler) List(c *fiber.Ctx) error {
	var query dto.PeopleQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	req, err := query.ToRequest()
	if err != nil {
		return err
	}

	page, err := h.people.Query(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPeopleResponse(page))
}
