package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/service-desk/internal/api/dto"
	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/service"
)

// BootstrapKeyHeader carries the one-time admin bootstrap secret.
const BootstrapKeyHeader = "X-Bootstrap-Key"

// UsersHandler exposes account management.
type UsersHandler struct {
	users         *service.UserService
	authenticator *auth.AuthMiddleware
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService, authenticator *auth.AuthMiddleware) *UsersHandler {
	return &UsersHandler{users: userService, authenticator: authenticator}
}

// Create POST /users. While no admin exists the call bootstraps the first
// admin with X-Bootstrap-Key; afterwards it requires an admin caller.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}
	input := service.CreateUserInput{FullName: req.FullName, Email: req.Email}
	if req.Role != nil {
		input.Role = *req.Role
	}

	ctx := c.UserContext()
	adminExists, err := h.users.AdminExists(ctx)
	if err != nil {
		return err
	}

	var created *service.CreatedUser
	if !adminExists {
		created, err = h.users.Bootstrap(ctx, c.Get(BootstrapKeyHeader), input)
	} else {
		p, authErr := h.authenticator.Authenticate(c)
		if authErr != nil {
			return authErr
		}
		created, err = h.users.Create(ctx, p.Identity, input)
	}
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.UserCreatedResponse{
		UserResponse: dto.NewUserResponse(created.User),
		APIKey:       created.APIKey,
	}})
}

// List GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	limit, offset, err := page(c)
	if err != nil {
		return err
	}
	users, err := h.users.List(c.UserContext(), p.Identity, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Me GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(p.User)})
}

// UpdateRole PATCH /users/:id/role.
func (h *UsersHandler) UpdateRole(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	user, err := h.users.UpdateRole(c.UserContext(), p.Identity, id, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// SetActive PATCH /users/:id/active.
func (h *UsersHandler) SetActive(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.SetActiveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	user, err := h.users.SetActive(c.UserContext(), p.Identity, id, *req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
