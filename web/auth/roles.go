package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Application roles. Guides lead tours, lead guides additionally manage
// tours and bookings.
const (
	RoleAdmin     = "ADMIN"
	RoleUser      = "USER"
	RoleGuide     = "GUIDE"
	RoleLeadGuide = "LEAD_GUIDE"
)

// Claims represents the authorization claims transmitted via a JWT
type Claims struct {
	Roles []string `json:"roles"`
	Email string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// NewClaims constructs a Claims value for the identified user
func NewClaims(subject, email string, roles []string, now time.Time, expires time.Duration) *Claims {
	return &Claims{
		Roles: roles,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expires)),
		},
	}
}

// HasRole returns true if the claims has at least one of the provided roles.
func (c *Claims) HasRole(roles ...string) bool {
	for _, has := range c.Roles {
		for _, want := range roles {
			if has == want {
				return true
			}
		}
	}
	return false
}
