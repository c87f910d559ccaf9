package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pet-platform/internal/models"
	"pet-platform/internal/store"
	"pet-platform/internal/token"
)

const identityKey = "identity"

// Identity is the resolved caller: the email from a verified token and
// the CURRENT role from the identity store. Claim roles are only a
// bootstrap; every ban-sensitive decision uses the live role so that a
// ban takes effect on the caller's next request.
type Identity struct {
	Email string
	Role  string
}

// RoleLookup is the slice of the identity store the gate needs.
type RoleLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}

// CallerIdentity returns the identity resolved by Authenticate.
func CallerIdentity(c *gin.Context) (Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

// Authenticate verifies the bearer token, re-resolves the caller's role
// from the identity store, and rejects banned accounts. Missing
// credentials are 401; present-but-invalid credentials are 403.
func Authenticate(tokens *token.Service, accounts RoleLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get Authorization Header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized access (No Token)"})
			return
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid authorization header format"})
			return
		}

		claims, err := tokens.Verify(parts[1])
		if err != nil {
			log.Println("Token verification failed:", err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden access (Invalid Token)"})
			return
		}

		identity, ok := resolveIdentity(c, accounts, claims.Email)
		if !ok {
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireAdmin gates admin-only routes. The caller comes either from an
// Authenticate step earlier in the chain or, for legacy routes, from an
// 'email' query parameter; either way the role is looked up live and must
// currently be admin.
func RequireAdmin(accounts RoleLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CallerIdentity(c)
		if !ok {
			email := c.Query("email")
			if email == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized access (No Token)"})
				return
			}
			identity, ok = resolveIdentity(c, accounts, email)
			if !ok {
				return
			}
			c.Set(identityKey, identity)
		}

		if identity.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden: Admin only"})
			return
		}

		c.Next()
	}
}

// resolveIdentity does the live identity-store lookup shared by both
// entry points. A missing account is "who are you" (401), a banned role
// is "you may not" (403).
func resolveIdentity(c *gin.Context, accounts RoleLookup, email string) (Identity, bool) {
	account, err := accounts.GetByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: unknown account"})
			return Identity{}, false
		}
		log.Println("Identity lookup failed:", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error."})
		return Identity{}, false
	}

	if account.Role == models.RoleBanned {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden: account banned"})
		return Identity{}, false
	}

	return Identity{Email: account.Email, Role: account.Role}, true
}
