package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/employee-api/pkg/util"
)

// APIKeyHeader is the request header carrying the shared API key.
const APIKeyHeader = "X-API-Key"

// gatedPrefixes are the path prefixes subject to the API-key gate.
var gatedPrefixes = []string{"/api/employees", "/api/admin"}

// APIKeyGate rejects requests to gated paths that do not present the
// configured API key. Requests carrying a bearer token fall through to
// JWT verification; everything else must match the key exactly. On
// success an API-key principal (no authorities) is installed.
func APIKeyGate(apiKey string) fiber.Handler {
	secret := []byte(apiKey)

	return func(c *fiber.Ctx) error {
		if !pathIsGated(c.Path()) {
			return c.Next()
		}
		if hasBearerToken(c) {
			return c.Next()
		}

		presented := c.Get(APIKeyHeader)
		if presented == "" {
			return apperrors.NewInvalidAPIKey("Invalid or missing API key")
		}
		if subtle.ConstantTimeCompare([]byte(presented), secret) != 1 {
			return apperrors.NewInvalidAPIKey("Invalid or missing API key")
		}

		StorePrincipal(c, NewAPIKeyPrincipal())
		return c.Next()
	}
}

func pathIsGated(path string) bool {
	for _, prefix := range gatedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func hasBearerToken(c *fiber.Ctx) bool {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return false
	}
	parts := strings.SplitN(header, " ", 2)
	return len(parts) == 2 && strings.EqualFold(parts[0], "Bearer")
}
