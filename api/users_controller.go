package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-taskboard/logging"
)

type UsersController struct {
	Logger   logging.Logger
	Accounts Accounts
}

func NewUsersController(accounts Accounts, logger logging.Logger) *UsersController {
	if accounts == nil {
		panic("Missing Accounts in users controller...")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &UsersController{Logger: logger, Accounts: accounts}
}

// Profile handles GET /users/profile
func (u *UsersController) Profile(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	user, err := u.Accounts.CurrentUser(c.UserContext(), identity.ID)
	if err != nil {
		return err
	}

	return OK(c, fiber.Map{"user": user})
}

// UpdateProfile handles PUT /users/profile
func (u *UsersController) UpdateProfile(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	payload := new(ProfileRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	user, err := u.Accounts.UpdateProfile(c.UserContext(), identity.ID, payload.Update())
	if err != nil {
		return err
	}

	return Success(c, fiber.StatusOK, "Profile updated successfully", fiber.Map{"user": user})
}

// Stats handles GET /users/stats
func (u *UsersController) Stats(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	stats, err := u.Accounts.Stats(c.UserContext(), identity.ID)
	if err != nil {
		return err
	}

	return OK(c, stats)
}

// Deactivate handles DELETE /users/profile. Owned tasks are kept.
func (u *UsersController) Deactivate(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	if err := u.Accounts.Deactivate(c.UserContext(), identity.ID); err != nil {
		return err
	}

	u.Logger.Info("account deactivated", "user_id", identity.ID)
	return Message(c, "Account deactivated successfully")
}

// List handles GET /users, admins only
func (u *UsersController) List(c *fiber.Ctx) error {
	users, err := u.Accounts.ListActive(c.UserContext())
	if err != nil {
		return err
	}

	return OK(c, fiber.Map{
		"users": users,
		"count": len(users),
	})
}
