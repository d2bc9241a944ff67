package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/spec-kit/employee-api/pkg/util"
)

// Claims describes the token payload this service consumes. Scope is the
// space-delimited OAuth scope claim.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenVerifier validates bearer tokens against the issuer's key set.
// Signature, expiry, not-before and issuer are checked by the parser;
// the audience check is a stand-alone validation composed after those.
type TokenVerifier struct {
	keys     jwt.Keyfunc
	parser   *jwt.Parser
	audience string
}

// NewTokenVerifier builds a verifier for the trusted issuer and audience.
func NewTokenVerifier(keys jwt.Keyfunc, issuer, audience string) *TokenVerifier {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	return &TokenVerifier{keys: keys, parser: parser, audience: audience}
}

// Verify parses and validates a raw token, returning the JWT principal.
func (v *TokenVerifier) Verify(tokenStr string) (*Principal, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenStr, claims, v.keys)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	if !token.Valid {
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	if err := v.validateAudience(claims); err != nil {
		return nil, err
	}
	return NewJWTPrincipal(claims.Subject, splitScopes(claims.Scope)), nil
}

func (v *TokenVerifier) validateAudience(claims *Claims) error {
	for _, aud := range claims.Audience {
		if aud == v.audience {
			return nil
		}
	}
	return apperrors.NewUnauthorized("token audience not accepted")
}

func splitScopes(scope string) []string {
	if scope == "" {
		return nil
	}
	return strings.Fields(scope)
}

// JWTVerification installs a JWT principal for requests carrying a bearer
// token. Requests already authenticated by the API-key gate, or carrying
// no token at all, pass through; the route policy decides whether an
// unauthenticated request may proceed.
func JWTVerification(verifier *TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); ok {
			return c.Next()
		}

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Next()
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperrors.NewUnauthorized("invalid authorization header")
		}

		principal, err := verifier.Verify(parts[1])
		if err != nil {
			return err
		}

		StorePrincipal(c, principal)
		return c.Next()
	}
}
