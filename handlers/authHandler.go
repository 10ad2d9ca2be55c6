package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tagserver/middlewares"
)

type registerRequest struct {
	Name   string `json:"name" binding:"required"`
	Avatar string `json:"avatar"`
}

// Register issues a player id and identity token. No account storage is
// involved; identity lives in the token.
func Register(c *gin.Context, logger *zap.Logger) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	playerID := uuid.NewString()
	token, err := middlewares.GenerateToken(playerID, req.Name)
	if err != nil {
		logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"playerId": playerID,
		"token":    token,
	})
}
