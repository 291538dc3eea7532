package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-taskboard/auth"
	"github.com/goliatone/go-taskboard/middleware/jwtware"
	"github.com/goliatone/go-taskboard/tasks"
)

// Accounts is the account surface the controllers depend on. *auth.Auther
// implements it.
type Accounts interface {
	jwtware.Authenticator
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Logout(ctx context.Context, claims *auth.JWTClaims) error
	CurrentUser(ctx context.Context, id string) (auth.PublicUser, error)
	UpdateProfile(ctx context.Context, id string, in auth.ProfileUpdate) (auth.PublicUser, error)
	Deactivate(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]auth.PublicUser, error)
	Stats(ctx context.Context, id string) (auth.UserStats, error)
}

// Tasks is the task surface the controllers depend on. *tasks.Service
// implements it.
type Tasks interface {
	Create(ctx context.Context, owner string, f tasks.Fields) (*tasks.Task, error)
	List(ctx context.Context, owner string, q tasks.Query) (*tasks.Page, error)
	Get(ctx context.Context, id, owner string) (*tasks.Task, error)
	Update(ctx context.Context, id, owner string, patch tasks.Patch) (*tasks.Task, error)
	Delete(ctx context.Context, id, owner string) (*tasks.Task, error)
	Stats(ctx context.Context, owner string) (tasks.Stats, error)
}

var (
	_ Accounts = (*auth.Auther)(nil)
	_ Tasks    = (*tasks.Service)(nil)
)

type validatable interface {
	Validate() error
}

// bind decodes the body into payload and validates it
func bind(c *fiber.Ctx, payload validatable) error {
	if err := c.BodyParser(payload); err != nil {
		return invalidPayload(err)
	}
	return validationError(payload.Validate())
}

// bindQuery decodes the query string into payload and validates it
func bindQuery(c *fiber.Ctx, payload validatable) error {
	if err := c.QueryParser(payload); err != nil {
		return invalidPayload(err)
	}
	return validationError(payload.Validate())
}

func currentIdentity(c *fiber.Ctx) (auth.Identity, error) {
	identity, ok := jwtware.IdentityFromCtx(c)
	if !ok || identity.ID == "" {
		return auth.Identity{}, auth.ErrMissingToken
	}
	return identity, nil
}
