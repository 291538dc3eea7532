package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-taskboard/logging"
	"github.com/goliatone/go-taskboard/middleware/jwtware"
)

type AuthController struct {
	Debug    bool
	Logger   logging.Logger
	Accounts Accounts
}

type AuthControllerOption func(*AuthController) *AuthController

func WithAuthDebug(debug bool) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		a.Debug = debug
		return a
	}
}

func WithAuthLogger(l logging.Logger) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		if l != nil {
			a.Logger = l
		}
		return a
	}
}

func NewAuthController(accounts Accounts, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:   logging.Default(),
		Accounts: accounts,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Accounts == nil {
		panic("Missing Accounts in auth controller...")
	}

	return c
}

// Register handles POST /auth/register
func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(RegisterRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	session, err := a.Accounts.Register(c.UserContext(), payload.Input())
	if err != nil {
		return err
	}

	if a.Debug {
		a.Logger.Debug("register", "user", print.MaybePrettyJSON(session.User))
	}

	return Created(c, "User registered successfully", session)
}

// Login handles POST /auth/login
func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	session, err := a.Accounts.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return Success(c, fiber.StatusOK, "Login successful", session)
}

// Me handles GET /auth/me
func (a *AuthController) Me(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	user, err := a.Accounts.CurrentUser(c.UserContext(), identity.ID)
	if err != nil {
		return err
	}

	return OK(c, fiber.Map{"user": user})
}

// Verify handles GET /auth/verify. The middleware already resolved the
// user, so reaching the handler means the token is good.
func (a *AuthController) Verify(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	user, err := a.Accounts.CurrentUser(c.UserContext(), identity.ID)
	if err != nil {
		return err
	}

	return Success(c, fiber.StatusOK, "Token is valid", fiber.Map{"user": user})
}

// Logout handles POST /auth/logout
func (a *AuthController) Logout(c *fiber.Ctx) error {
	claims, _ := jwtware.ClaimsFromCtx(c)
	if err := a.Accounts.Logout(c.UserContext(), claims); err != nil {
		return err
	}
	return Message(c, "Logout successful")
}
