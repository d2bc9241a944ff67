package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/employee-api/pkg/util"
)

// AdminAuthority is the scope required on administrative paths.
const AdminAuthority = "admin"

// Requirement classifies what a route demands from the caller.
type Requirement int

const (
	// RequirePublic allows unauthenticated access.
	RequirePublic Requirement = iota
	// RequireAuthenticated accepts any installed principal.
	RequireAuthenticated
	// RequireAuthority demands a principal carrying a named scope.
	RequireAuthority
)

// Rule binds a path prefix to its access requirement.
type Rule struct {
	Prefix      string
	Requirement Requirement
	Authority   string
}

// DefaultPolicy is the ordered access table, evaluated top to bottom with
// first match winning. Paths matching no rule require authentication.
var DefaultPolicy = []Rule{
	{Prefix: "/healthz", Requirement: RequirePublic},
	{Prefix: "/actuator/health", Requirement: RequirePublic},
	{Prefix: "/actuator/info", Requirement: RequirePublic},
	{Prefix: "/api/public", Requirement: RequirePublic},
	{Prefix: "/swagger", Requirement: RequirePublic},
	{Prefix: "/api/employees", Requirement: RequireAuthenticated},
	{Prefix: "/api/admin", Requirement: RequireAuthority, Authority: AdminAuthority},
}

// Match returns the first rule whose prefix matches the path. Unmatched
// paths fall back to requiring an authenticated principal.
func Match(rules []Rule, path string) Rule {
	for _, rule := range rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule
		}
	}
	return Rule{Requirement: RequireAuthenticated}
}

// Authorize enforces the policy table against the installed principal.
func Authorize(rules []Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rule := Match(rules, c.Path())
		if rule.Requirement == RequirePublic {
			return c.Next()
		}

		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if rule.Requirement == RequireAuthority && !principal.HasAuthority(rule.Authority) {
			return apperrors.NewForbidden("insufficient authority")
		}
		return c.Next()
	}
}
