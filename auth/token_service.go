package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-taskboard/logging"
)

// DefaultTokenTTL is the session token lifetime when none is configured
const DefaultTokenTTL = 24 * time.Hour

// TokenServiceImpl implements the TokenService interface using HS256
type TokenServiceImpl struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	clock      func() time.Time
	logger     Logger
}

// TokenOption configures a TokenServiceImpl
type TokenOption func(*TokenServiceImpl)

// WithIssuer sets the iss claim and requires it on verification
func WithIssuer(issuer string) TokenOption {
	return func(ts *TokenServiceImpl) {
		ts.issuer = issuer
	}
}

// WithAudience sets the aud claim and requires it on verification
func WithAudience(audience ...string) TokenOption {
	return func(ts *TokenServiceImpl) {
		ts.audience = jwt.ClaimStrings(audience)
	}
}

// WithClock overrides the time source used to stamp and check tokens
func WithClock(clock func() time.Time) TokenOption {
	return func(ts *TokenServiceImpl) {
		if clock != nil {
			ts.clock = clock
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, ttl time.Duration, opts ...TokenOption) *TokenServiceImpl {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	ts := &TokenServiceImpl{
		signingKey: signingKey,
		ttl:        ttl,
		clock:      time.Now,
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// TTL returns the configured token lifetime
func (ts *TokenServiceImpl) TTL() time.Duration {
	return ts.ttl
}

// Issue creates a signed token for userID
func (ts *TokenServiceImpl) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required", errors.CategoryBadInput)
	}

	now := ts.clock()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   userID,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		UID: userID,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Verify parses and validates a token string. It only ever fails with
// ErrTokenExpired or ErrTokenInvalid.
func (ts *TokenServiceImpl) Verify(tokenString string) (*JWTClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.clock),
		jwt.WithExpirationRequired(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		for _, aud := range ts.audience {
			parserOptions = append(parserOptions, jwt.WithAudience(aud))
		}
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Warn("token verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		ts.logger.Debug("token verify failed", "error", err)
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID() == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
