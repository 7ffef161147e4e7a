package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"presence-service/internal/admission"
	"presence-service/internal/domain"
	"presence-service/internal/metrics"
	"presence-service/internal/presence"
)

// RoomFetcher reloads the persisted rooms of a hive before each broadcast.
type RoomFetcher interface {
	FetchRooms(ctx context.Context, hiveID int64) ([]domain.PrivateRoom, []domain.WorkRoom, error)
}

// Mirror receives every snapshot after it was fanned out.
type Mirror interface {
	Publish(ctx context.Context, hiveID int64, msg domain.UpdateMessage) error
}

type Options struct {
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	MaxMessageSize  int64
	// ReplyRejections sends a "rejected" frame to the connection whose
	// message was refused, in addition to the usual broadcast.
	ReplyRejections bool
}

// Hub routes control messages from connections to their hive and fans
// the resulting state out to every connection of that hive.
type Hub struct {
	manager *presence.Manager
	engine  *admission.Engine
	rooms   RoomFetcher
	mirror  Mirror
	metrics *metrics.Metrics
	logger  *zap.Logger

	opts     Options
	upgrader websocket.Upgrader
}

func NewHub(
	manager *presence.Manager,
	engine *admission.Engine,
	rooms RoomFetcher,
	mirror Mirror,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts Options,
) *Hub {
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = 1024
	}
	if opts.WriteBufferSize <= 0 {
		opts.WriteBufferSize = 1024
	}
	if opts.SendBufferSize <= 0 {
		opts.SendBufferSize = 256
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 8192
	}

	return &Hub{
		manager: manager,
		engine:  engine,
		rooms:   rooms,
		mirror:  mirror,
		metrics: m,
		logger:  logger,
		opts:    opts,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  opts.ReadBufferSize,
			WriteBufferSize: opts.WriteBufferSize,
		},
	}
}

// HandleWebSocket upgrades the request. The client binds itself to a hive
// with its first setHive message.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := &Client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, h.opts.SendBufferSize),
		hub:  h,
		done: make(chan struct{}),
	}

	h.metrics.ConnectionOpened()
	h.logger.Debug("Client connected",
		zap.String("connId", client.id),
		zap.String("remoteAddr", c.Request.RemoteAddr))

	go client.writePump()
	go client.readPump()
}

func (h *Hub) handleMessage(c *Client, raw []byte) {
	msg, err := domain.DecodeInbound(raw)
	if err != nil {
		h.metrics.RecordMessage("invalid")
		h.logger.Warn("Failed to parse message",
			zap.String("connId", c.id),
			zap.Error(err))
		return
	}
	h.metrics.RecordMessage(msg.Type)

	ctx := context.Background()

	if msg.Type == domain.MessageSetHive {
		h.bind(ctx, c, &msg)
		return
	}

	if c.hive == nil {
		h.logger.Debug("Message before setHive ignored",
			zap.String("connId", c.id),
			zap.String("type", msg.Type))
		return
	}

	c.hive.Do(func(st *presence.State) {
		err := h.apply(ctx, st, &msg)
		h.report(c, msg.Type, err)
		h.broadcast(ctx, st)
	})
}

// apply runs one non-setHive control message against the hive state.
func (h *Hub) apply(ctx context.Context, st *presence.State, msg *domain.InboundMessage) error {
	switch msg.Type {
	case domain.MessageEnterWorkspace:
		return h.engine.Enter(st, msg.UserID.Int64(), msg.WorkspaceID.Int64(), msg.Room)
	case domain.MessageLockWorkspace:
		return h.engine.ToggleLock(ctx, st, msg.WorkspaceID.Int64())
	case domain.MessageCreateWorkspace:
		_, err := h.engine.Create(ctx, st, msg.WorkspaceMaxUsers)
		return err
	case domain.MessageDeleteWorkspace:
		return h.engine.Delete(ctx, st, msg.UserID.Int64(), msg.WorkspaceID.Int64())
	case domain.MessageSetStatus:
		return h.engine.SetStatus(st, msg.UserID.Int64(), msg.Status)
	default:
		h.logger.Warn("Unknown message type",
			zap.Int64("hiveId", st.HiveID),
			zap.String("type", msg.Type))
		return nil
	}
}

// bind attaches c to the hive named by a setHive message and joins its user.
// Switching to another hive, or to another user, leaves the old binding first.
func (h *Hub) bind(ctx context.Context, c *Client, msg *domain.InboundMessage) {
	hiveID := msg.HiveID.Int64()
	var identity domain.UserIdentity
	if msg.User != nil {
		identity = *msg.User
	}
	userID := identity.ID.Int64()

	if hiveID == 0 {
		h.logger.Warn("setHive without a hive id", zap.String("connId", c.id))
		if c.hive != nil {
			c.hive.Do(func(st *presence.State) {
				h.broadcast(ctx, st)
			})
		}
		return
	}

	if c.hive != nil && (c.hive.ID() != hiveID || c.userID != userID) {
		h.disconnect(c)
	}

	c.token = msg.Token
	join := func(st *presence.State) {
		st.Attach(c, userID)
		var err error
		if userID != 0 {
			err = h.engine.Join(ctx, st, identity)
		}
		h.report(c, msg.Type, err)
		h.broadcast(ctx, st)
	}

	if c.hive != nil {
		c.hive.Do(join)
		return
	}

	c.hive = h.manager.Join(hiveID, join)
	c.userID = userID
	h.logger.Info("Client bound to hive",
		zap.String("connId", c.id),
		zap.Int64("hiveId", hiveID),
		zap.Int64("userId", userID))
}

// disconnect releases c's hive binding. The user's presence record goes away
// with their last connection in that hive.
func (h *Hub) disconnect(c *Client) {
	if c.hive == nil {
		return
	}

	ctx := context.Background()
	c.hive.Do(func(st *presence.State) {
		userID, last := st.Detach(c)
		if last {
			st.Users.Remove(userID)
			h.logger.Info("User left hive",
				zap.Int64("hiveId", st.HiveID),
				zap.Int64("userId", userID))
		}
		h.broadcast(ctx, st)
	})
	c.hive = nil
	c.userID = 0
}

// broadcast refreshes the room snapshot and pushes the full state to every
// connection of the hive. A failed refresh keeps the last good rooms.
func (h *Hub) broadcast(ctx context.Context, st *presence.State) {
	start := time.Now()

	privateRooms, workRooms, err := h.rooms.FetchRooms(ctx, st.HiveID)
	if err != nil {
		h.logger.Warn("Room refresh failed, broadcasting last snapshot",
			zap.Int64("hiveId", st.HiveID),
			zap.Error(err))
	} else {
		st.SetRooms(privateRooms, workRooms)
	}

	snapshot := st.Snapshot()
	payload, err := json.Marshal(snapshot)
	if err != nil {
		h.logger.Error("Failed to marshal snapshot", zap.Int64("hiveId", st.HiveID), zap.Error(err))
		return
	}

	st.Broadcast(payload)
	h.metrics.RecordBroadcast(time.Since(start))

	if h.mirror != nil {
		// errors are logged by the mirror
		_ = h.mirror.Publish(ctx, st.HiveID, snapshot)
	}
}

// report logs and counts a rejection and, when enabled, tells the sender.
func (h *Hub) report(c *Client, action string, err error) {
	if err == nil {
		return
	}

	reason, ok := admission.ReasonOf(err)
	if !ok {
		h.logger.Error("Control message failed",
			zap.String("connId", c.id),
			zap.String("type", action),
			zap.Error(err))
		return
	}

	h.metrics.RecordRejection(action, string(reason))
	h.logger.Debug("Control message rejected",
		zap.String("connId", c.id),
		zap.String("type", action),
		zap.String("reason", string(reason)),
		zap.Error(err))

	if !h.opts.ReplyRejections {
		return
	}
	payload, _ := json.Marshal(domain.RejectedMessage{
		Type:   domain.MessageRejected,
		Action: action,
		Reason: string(reason),
	})
	c.Send(payload)
}

// Shutdown asks every connection of every hive to close. Each connection's
// read loop then detaches it as usual.
func (h *Hub) Shutdown() {
	for _, hive := range h.manager.Hives() {
		hive.Do(func(st *presence.State) {
			st.CloseAll()
		})
	}
}
