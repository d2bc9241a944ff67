package auth

import "github.com/gofiber/fiber/v2"

const principalKey = "auth_principal"

// PrincipalKind discriminates the two accepted credential mechanisms.
type PrincipalKind string

const (
	PrincipalKindAPIKey PrincipalKind = "API_KEY"
	PrincipalKindJWT    PrincipalKind = "JWT"
)

// Principal represents the authenticated caller for one request. API-key
// principals carry no authorities; JWT principals carry the scopes
// extracted from the token.
type Principal struct {
	Kind    PrincipalKind
	Subject string
	Scopes  []string
}

// NewAPIKeyPrincipal builds the identity installed by the API-key gate.
func NewAPIKeyPrincipal() *Principal {
	return &Principal{Kind: PrincipalKindAPIKey, Subject: "api-key"}
}

// NewJWTPrincipal builds the identity extracted from a verified token.
func NewJWTPrincipal(subject string, scopes []string) *Principal {
	return &Principal{Kind: PrincipalKindJWT, Subject: subject, Scopes: scopes}
}

// HasAuthority reports whether the principal carries the named scope.
// API-key principals never do.
func (p *Principal) HasAuthority(name string) bool {
	if p == nil || p.Kind != PrincipalKindJWT {
		return false
	}
	for _, scope := range p.Scopes {
		if scope == name {
			return true
		}
	}
	return false
}

// StorePrincipal attaches the principal to the request scope.
func StorePrincipal(c *fiber.Ctx, principal *Principal) {
	c.Locals(principalKey, principal)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}
