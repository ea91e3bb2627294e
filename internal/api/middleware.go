package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const accountKey = "account"

// RateLimit limits requests per client IP. rate uses the limiter's
// "<limit>-<period>" form, e.g. "20-S".
func RateLimit(rate string) (gin.HandlerFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("rate %q: %w", rate, err)
	}
	mw := stdlib.NewMiddleware(limiter.New(memory.NewStore(), r))

	return func(c *gin.Context) {
		mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)

		if c.Writer.Status() == http.StatusTooManyRequests {
			c.Abort()
		}
	}, nil
}

// BearerAuth accepts HS256 tokens signed with secret whose subject is the
// terminal's signed-in account.
func BearerAuth(secret []byte, account func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("missing bearer token"))
			return
		}

		sub, err := ParseToken(secret, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("invalid token"))
			return
		}
		if want := account(); want == "" || sub != want {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse("token is not for this terminal's account"))
			return
		}
		c.Set(accountKey, sub)
		c.Next()
	}
}

// IssueToken signs a token for account, valid for ttl.
func IssueToken(secret []byte, account string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   account,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates a token and returns its subject.
func ParseToken(secret []byte, token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// requireReady answers 503 until the session's snapshot is loaded.
func requireReady(ready func() <-chan struct{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		select {
		case <-ready():
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorResponse("terminal is still loading"))
		}
	}
}
