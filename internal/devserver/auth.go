package devserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"talentlink-inbox/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDContextKey = "user_id"

type AccessClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies the dev server's access tokens.
type TokenManager struct {
	secret []byte
	expiry time.Duration
}

func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), expiry: expiry}
}

func (m *TokenManager) Issue(user *User) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) Parse(tokenString string) (AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return AccessClaims{}, fmt.Errorf("invalid token")
	}
	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok {
		return AccessClaims{}, fmt.Errorf("invalid claims")
	}
	return *claims, nil
}

func (m *TokenManager) userID(claims AccessClaims) (int64, error) {
	return strconv.ParseInt(claims.Subject, 10, 64)
}

// AuthMiddleware rejects requests without a valid bearer token and
// stashes the caller's user id in the gin context.
func AuthMiddleware(tm *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tm.Parse(extractBearer(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
			c.Abort()
			return
		}
		userID, err := tm.userID(claims)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
			c.Abort()
			return
		}
		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) (int64, bool) {
	value, ok := c.Get(userIDContextKey)
	if !ok {
		return 0, false
	}
	userID, ok := value.(int64)
	return userID, ok
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
