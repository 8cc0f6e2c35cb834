package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/service-desk/internal/api/dto"
	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/service"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

// RequestsHandler exposes the service request endpoints.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateRequestRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	created, err := h.service.Create(c.UserContext(), p.Identity, service.CreateRequestInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
	}, changeContext(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRequestResponse(created)})
}

// List GET /requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter, err := listFilter(c)
	if err != nil {
		return err
	}
	items, err := h.service.List(c.UserContext(), p.Identity, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestList(items)})
}

// ListMine GET /requests/my.
func (h *RequestsHandler) ListMine(c *fiber.Ctx) error {
	return h.listPage(c, h.service.ListMine)
}

// ListAssignedToMe GET /requests/assigned-to-me.
func (h *RequestsHandler) ListAssignedToMe(c *fiber.Ctx) error {
	return h.listPage(c, h.service.ListAssignedToMe)
}

// ListQueue GET /requests/queue.
func (h *RequestsHandler) ListQueue(c *fiber.Ctx) error {
	return h.listPage(c, h.service.ListQueue)
}

type pagedList func(ctx context.Context, actor domain.Identity, limit, offset int) ([]domain.ServiceRequest, error)

func (h *RequestsHandler) listPage(c *fiber.Ctx, list pagedList) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	limit, offset, err := page(c)
	if err != nil {
		return err
	}
	items, err := list(c.UserContext(), p.Identity, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestList(items)})
}

// Get GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req, err := h.service.Get(c.UserContext(), p.Identity, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(req)})
}

// GetByPublicID GET /requests/by-public-id/:publicID.
func (h *RequestsHandler) GetByPublicID(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	publicID, err := uuid.Parse(c.Params("publicID"))
	if err != nil {
		return apperrors.NewValidationError("", map[string]any{"public_id": "must be a UUID"})
	}
	req, err := h.service.GetByPublicID(c.UserContext(), p.Identity, publicID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(req)})
}

// UpdateStatus PATCH /requests/:id/status.
func (h *RequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateRequestRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	change, err := req.Validate()
	if err != nil {
		return err
	}

	updated, err := h.service.Update(c.UserContext(), p.Identity, id, change, changeContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(updated)})
}

// History GET /requests/:id/history.
func (h *RequestsHandler) History(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), p.Identity, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestLogList(entries)})
}
