package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"

	"fastfood/internal/core"
)

// ContextUserKey is the gin context key holding the authenticated username
const ContextUserKey = "username"

var (
	ErrMissingToken = errors.New("authorization header required")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the staff token claims
type Claims struct {
	Username string `json:"username"`
	jwt.StandardClaims
}

// Issuer signs and verifies staff tokens with HMAC-SHA256
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  core.Clock
}

// NewIssuer creates a token issuer
func NewIssuer(secret string, ttl time.Duration, clock core.Clock) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required: %w", core.ErrValidation)
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, clock: clock}, nil
}

// Issue signs a token for username
func (i *Issuer) Issue(username string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("username is required: %w", core.ErrValidation)
	}
	now := i.clock.Now()
	claims := Claims{
		Username: username,
		StandardClaims: jwt.StandardClaims{
			Subject:   username,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(i.ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse verifies a token and returns its claims. Expiry is checked against
// the issuer's clock.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.VerifyExpiresAt(i.clock.Now().Unix(), true) || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token
func (i *Issuer) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrMissingToken.Error()})
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims, err := i.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ContextUserKey, claims.Username)
		c.Next()
	}
}

// Username returns the authenticated user of the request, if any
func Username(c *gin.Context) string {
	return c.GetString(ContextUserKey)
}
