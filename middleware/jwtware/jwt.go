package jwtware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-taskboard/auth"
)

var defaultTokenLookup = "header:" + fiber.HeaderAuthorization

const (
	// DefaultContextKey is the fiber locals key holding the auth.Identity
	DefaultContextKey = "user"
	// DefaultClaimsKey is the fiber locals key holding the verified claims
	DefaultClaimsKey = "claims"
)

// Authenticator resolves a raw bearer token into the identity behind it
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, *auth.JWTClaims, error)
}

// ValidationListener is invoked after a token has been validated but before the request proceeds.
type ValidationListener func(c *fiber.Ctx, identity auth.Identity, claims *auth.JWTClaims) error

type Config struct {
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler
	ContextKey     string
	ClaimsKey      string
	TokenLookup    string
	AuthScheme     string
	// Authenticator is required
	Authenticator Authenticator

	// ContextEnricher propagates the identity to the request's user context.
	// Defaults to auth.WithIdentity plus auth.WithClaimsContext.
	ContextEnricher func(c context.Context, identity auth.Identity, claims *auth.JWTClaims) context.Context

	ValidationListeners []ValidationListener
}

// New returns a fiber handler that rejects requests without a valid bearer token
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := ExtractRawToken(c, extractors)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		identity, claims, err := cfg.Authenticator.Authenticate(c.UserContext(), raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		for _, listener := range cfg.ValidationListeners {
			if listener == nil {
				continue
			}
			if err := listener(c, identity, claims); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		c.Locals(cfg.ContextKey, identity)
		c.Locals(cfg.ClaimsKey, claims)
		c.SetUserContext(cfg.ContextEnricher(c.UserContext(), identity, claims))

		return cfg.SuccessHandler(c)
	}
}

// RequireRoles must run after New. It rejects identities whose role is not in roles.
func RequireRoles(roles ...auth.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromCtx(c)
		if !ok {
			return auth.ErrMissingToken
		}
		if !identity.HasRole(roles...) {
			return auth.ErrForbidden
		}
		return c.Next()
	}
}

// IdentityFromCtx returns the identity stored by New
func IdentityFromCtx(c *fiber.Ctx) (auth.Identity, bool) {
	if identity, ok := c.Locals(DefaultContextKey).(auth.Identity); ok {
		return identity, true
	}
	return auth.IdentityFromContext(c.UserContext())
}

// ClaimsFromCtx returns the claims stored by New
func ClaimsFromCtx(c *fiber.Ctx) (*auth.JWTClaims, bool) {
	if claims, ok := c.Locals(DefaultClaimsKey).(*auth.JWTClaims); ok && claims != nil {
		return claims, true
	}
	return auth.GetClaims(c.UserContext())
}

func ExtractRawToken(c *fiber.Ctx, extractors []JWTExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(_ *fiber.Ctx, err error) error {
			return err
		}
	}

	if cfg.Authenticator == nil {
		panic("AUTH: JWT middleware configuration: Authenticator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.ClaimsKey == "" {
		cfg.ClaimsKey = DefaultClaimsKey
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ContextEnricher == nil {
		cfg.ContextEnricher = func(ctx context.Context, identity auth.Identity, claims *auth.JWTClaims) context.Context {
			return auth.WithClaimsContext(auth.WithIdentity(ctx, identity), claims)
		}
	}

	return cfg
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 && strings.TrimSpace(authSchemes[0]) != "" {
		authScheme = strings.TrimSpace(authSchemes[0])
	}

	// header:Authorization,cookie:jwt,query:auth_token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, jwtFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(parts[1]))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(parts[1]))
		}
	}

	return extractors
}

type JWTExtractor func(c *fiber.Ctx) (string, error)

// jwtFromHeader extracts "<scheme> <token>" from the header. The scheme is case insensitive.
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		a := strings.TrimSpace(c.Get(header))
		l := len(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			if token := strings.TrimSpace(a[l:]); token != "" {
				return token, nil
			}
		}
		return "", auth.ErrMissingToken
	}
}

// jwtFromQuery extracts the token from the query string.
func jwtFromQuery(param string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", auth.ErrMissingToken
		}
		return token, nil
	}
}

// jwtFromCookie extracts the token from the named cookie.
func jwtFromCookie(name string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", auth.ErrMissingToken
		}
		return token, nil
	}
}
