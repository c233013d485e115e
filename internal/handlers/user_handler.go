package handlers

import (
	"docmanager/internal/dto"
	"docmanager/internal/middleware"
	"docmanager/internal/services"
	"docmanager/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	page, limit := pageParams(c)

	users, total, err := h.userService.List(page, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"users":      dto.UsersFromModels(users),
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c, "Invalid user id")
	}

	user, err := h.userService.GetByID(uint(id))
	if err != nil {
		return fail(c, err)
	}
	resp := dto.UserFromModel(user)
	return c.JSON(resp)
}

func (h *UserHandler) GetByUsername(c *fiber.Ctx) error {
	user, err := h.userService.GetByUsername(c.Params("username"))
	if err != nil {
		return fail(c, err)
	}
	resp := dto.UserFromModel(user)
	return c.JSON(resp)
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, err)
	}

	user, err := h.userService.Create(&req)
	if err != nil {
		return fail(c, err)
	}
	resp := dto.UserFromModel(user)
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c, "Invalid user id")
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, err)
	}

	user, err := h.userService.Update(middleware.Principal(c), uint(id), &req)
	if err != nil {
		return fail(c, err)
	}
	resp := dto.UserFromModel(user)
	return c.JSON(resp)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c, "Invalid user id")
	}

	if err := h.userService.Delete(uint(id)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) CheckUsername(c *fiber.Ctx) error {
	exists, err := h.userService.UsernameExists(c.Params("username"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"exists": exists})
}

func (h *UserHandler) CheckEmail(c *fiber.Ctx) error {
	exists, err := h.userService.EmailExists(c.Params("email"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"exists": exists})
}
