package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-taskboard/auth"
	"github.com/goliatone/go-taskboard/logging"
	"github.com/goliatone/go-taskboard/middleware/jwtware"
)

// RouteConfig holds what RegisterRoutes needs
type RouteConfig struct {
	Accounts Accounts
	Tasks    Tasks
	Logger   logging.Logger
	Debug    bool
	// AuthLimiter guards register and login when set
	AuthLimiter fiber.Handler
}

// RegisterRoutes mounts the auth, users and tasks endpoints on r, which is
// usually the /api group.
func RegisterRoutes(r fiber.Router, cfg RouteConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	protected := jwtware.New(jwtware.Config{
		Authenticator: cfg.Accounts,
	})

	limited := func(c *fiber.Ctx) error { return c.Next() }
	if cfg.AuthLimiter != nil {
		limited = cfg.AuthLimiter
	}

	authCtrl := NewAuthController(cfg.Accounts,
		WithAuthDebug(cfg.Debug),
		WithAuthLogger(logger),
	)
	authGroup := r.Group("/auth")
	authGroup.Post("/register", limited, authCtrl.Register)
	authGroup.Post("/login", limited, authCtrl.Login)
	authGroup.Get("/me", protected, authCtrl.Me)
	authGroup.Get("/verify", protected, authCtrl.Verify)
	authGroup.Post("/logout", protected, authCtrl.Logout)

	usersCtrl := NewUsersController(cfg.Accounts, logger)
	users := r.Group("/users", protected)
	users.Get("/profile", usersCtrl.Profile)
	users.Put("/profile", usersCtrl.UpdateProfile)
	users.Delete("/profile", usersCtrl.Deactivate)
	users.Get("/stats", usersCtrl.Stats)
	users.Get("/", jwtware.RequireRoles(auth.RoleAdmin), usersCtrl.List)

	tasksCtrl := NewTasksController(cfg.Tasks, logger)
	taskGroup := r.Group("/tasks", protected)
	taskGroup.Get("/stats/summary", tasksCtrl.Stats)
	taskGroup.Get("/", tasksCtrl.List)
	taskGroup.Post("/", tasksCtrl.Create)
	taskGroup.Get("/:id", tasksCtrl.Get)
	taskGroup.Put("/:id", tasksCtrl.Update)
	taskGroup.Delete("/:id", tasksCtrl.Delete)
}
