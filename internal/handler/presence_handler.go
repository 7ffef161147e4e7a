package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"presence-service/internal/domain"
	"presence-service/internal/presence"
)

// OnlineLister reads the user set other replicas mirrored to Redis.
type OnlineLister interface {
	OnlineUsers(ctx context.Context, hiveID int64) ([]int64, error)
}

type PresenceHandler struct {
	manager *presence.Manager
	online  OnlineLister
	logger  *zap.Logger
}

// NewPresenceHandler takes a nil online lister when Redis is disabled.
func NewPresenceHandler(manager *presence.Manager, online OnlineLister, logger *zap.Logger) *PresenceHandler {
	return &PresenceHandler{
		manager: manager,
		online:  online,
		logger:  logger,
	}
}

// GetSnapshot returns the live state of a hive as this instance sees it,
// in the same shape as the "update" frame.
func (h *PresenceHandler) GetSnapshot(c *gin.Context) {
	hiveID, ok := parseHiveID(c)
	if !ok {
		return
	}

	hive, found := h.manager.Get(hiveID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "hive has no live presence"})
		return
	}

	var snapshot domain.UpdateMessage
	hive.Do(func(st *presence.State) {
		snapshot = st.Snapshot()
	})

	c.JSON(http.StatusOK, snapshot)
}

// GetOnlineUsers returns the ids mirrored for a hive.
func (h *PresenceHandler) GetOnlineUsers(c *gin.Context) {
	hiveID, ok := parseHiveID(c)
	if !ok {
		return
	}

	if h.online == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presence mirror disabled"})
		return
	}

	ids, err := h.online.OnlineUsers(c.Request.Context(), hiveID)
	if err != nil {
		h.logger.Error("failed to read online users",
			zap.Int64("hiveId", hiveID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read online users"})
		return
	}
	if ids == nil {
		ids = []int64{}
	}

	c.JSON(http.StatusOK, gin.H{
		"hiveId": hiveID,
		"users":  ids,
	})
}

func parseHiveID(c *gin.Context) (int64, bool) {
	hiveID, err := strconv.ParseInt(c.Param("hiveId"), 10, 64)
	if err != nil || hiveID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hive id"})
		return 0, false
	}
	return hiveID, true
}
