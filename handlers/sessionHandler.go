package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tagserver/game/registry"
	"tagserver/models"
)

type createSessionRequest struct {
	Mode     models.GameMode        `json:"mode" binding:"required"`
	Settings models.SessionSettings `json:"settings"`
	Avatar   string                 `json:"avatar"`
}

// CreateSession opens a new lobby with the caller as host.
func CreateSession(c *gin.Context, reg *registry.Registry, logger *zap.Logger) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	playerID, playerName := playerIdentity(c)
	host := &models.Player{ID: playerID, Name: playerName, Avatar: req.Avatar}

	sess, err := reg.CreateSession(c.Request.Context(), host, req.Mode, req.Settings)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	view, err := sess.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type joinRequest struct {
	Code   string `json:"code" binding:"required"`
	Avatar string `json:"avatar"`
}

// JoinSession adds the caller to the lobby behind a join code.
func JoinSession(c *gin.Context, reg *registry.Registry, logger *zap.Logger) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	sess, err := reg.GetByCode(req.Code)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	playerID, playerName := playerIdentity(c)
	player := &models.Player{ID: playerID, Name: playerName, Avatar: req.Avatar}
	if err := sess.Join(c.Request.Context(), player); err != nil {
		respondError(c, logger, err)
		return
	}
	view, err := sess.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetSession returns a snapshot of the session's visible state.
func GetSession(c *gin.Context, reg *registry.Registry, logger *zap.Logger) {
	sess, err := reg.Get(c.Param("id"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	view, err := sess.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// StartSession begins the game. Host only.
func StartSession(c *gin.Context, reg *registry.Registry, logger *zap.Logger) {
	sess, err := reg.Get(c.Param("id"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	playerID, _ := playerIdentity(c)
	if err := sess.Start(c.Request.Context(), playerID); err != nil {
		respondError(c, logger, err)
		return
	}
	view, err := sess.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type tagRequest struct {
	TaggedID  string           `json:"taggedId" binding:"required"`
	Timestamp time.Time        `json:"timestamp"`
	Location  *models.Location `json:"location"`
}

// SubmitTag submits one tag attempt for arbitration. A rejected attempt
// is a 200 with accepted=false, not an error.
func SubmitTag(c *gin.Context, reg *registry.Registry, logger *zap.Logger) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "taggedId is required"})
		return
	}
	sess, err := reg.Get(c.Param("id"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	playerID, _ := playerIdentity(c)
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}
	outcome, err := sess.SubmitTag(c.Request.Context(), models.TagAttempt{
		TaggerID:  playerID,
		TaggedID:  req.TaggedID,
		Timestamp: req.Timestamp,
		Location:  req.Location,
	})
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

type locationRequest struct {
	Lat      float64 `json:"lat" binding:"required"`
	Lng      float64 `json:"lng" binding:"required"`
	Accuracy float64 `json:"accuracy"`
}

// UpdateLocation refreshes the caller's position.
func UpdateLocation(c *gin.Context, reg *registry.Registry, logger *zap.Logger) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}
	sess, err := reg.Get(c.Param("id"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	playerID, _ := playerIdentity(c)
	loc := models.Location{Lat: req.Lat, Lng: req.Lng, Accuracy: req.Accuracy, Timestamp: time.Now()}
	if err := sess.UpdateLocation(c.Request.Context(), playerID, loc); err != nil {
		respondError(c, logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LeaveSession removes the caller from the game, running host failover
// when the host departs.
func LeaveSession(c *gin.Context, reg *registry.Registry, logger *zap.Logger) {
	sess, err := reg.Get(c.Param("id"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	playerID, _ := playerIdentity(c)
	if err := sess.Leave(c.Request.Context(), playerID); err != nil {
		respondError(c, logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// EndSession forces the game to end. Host only; idempotent.
func EndSession(c *gin.Context, reg *registry.Registry, logger *zap.Logger) {
	sess, err := reg.Get(c.Param("id"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	playerID, _ := playerIdentity(c)
	outcome, err := sess.End(c.Request.Context(), playerID)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcome": outcome})
}
