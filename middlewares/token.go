package middlewares

import (
	"net/http"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tagserver/auth"
	"tagserver/models"
)

const tokenTTL = 72 * time.Hour

// Context keys set by TokenAuth for downstream handlers.
const (
	CtxPlayerID   = "playerID"
	CtxPlayerName = "playerName"
)

// GenerateToken issues a signed identity token for a player.
func GenerateToken(playerID, playerName string) (string, error) {
	claims := &models.PlayerClaims{
		PlayerID:   playerID,
		PlayerName: playerName,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(tokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(auth.JwtKey)
}

// ParseToken verifies a token string and returns its claims.
func ParseToken(tokenString string) (*models.PlayerClaims, error) {
	claims := &models.PlayerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return auth.JwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.NewValidationError("invalid token", jwt.ValidationErrorSignatureInvalid)
	}
	return claims, nil
}

// TokenAuth rejects requests without a valid Bearer token and exposes the
// player identity to handlers via the gin context.
func TokenAuth(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := ParseToken(tokenString)
		if err != nil {
			logger.Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(CtxPlayerID, claims.PlayerID)
		c.Set(CtxPlayerName, claims.PlayerName)
		c.Next()
	}
}
