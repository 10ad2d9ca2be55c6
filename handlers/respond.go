package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tagserver/game"
	"tagserver/middlewares"
)

// respondError maps engine error kinds onto HTTP statuses. Anything that
// is not a game.Error is an internal failure.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var ge *game.Error
	if !errors.As(err, &ge) {
		logger.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	status := http.StatusInternalServerError
	switch ge.Kind {
	case game.KindValidation:
		status = http.StatusBadRequest
	case game.KindNotFound:
		status = http.StatusNotFound
	case game.KindAuthorization:
		status = http.StatusForbidden
	case game.KindState:
		status = http.StatusConflict
	case game.KindRateLimited:
		status = http.StatusTooManyRequests
		c.Header("Retry-After", strconv.Itoa(int(ge.RetryAfter.Seconds())))
	}
	c.JSON(status, gin.H{"error": ge.Message})
}

// playerIdentity pulls the authenticated player from the gin context.
func playerIdentity(c *gin.Context) (id, name string) {
	id = c.GetString(middlewares.CtxPlayerID)
	name = c.GetString(middlewares.CtxPlayerName)
	return
}
