package server

import (
	"net/http"
	"sync"
	"time"

	"soundmap/logger"
	"soundmap/model"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	// WebSocket 配置
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // 必须小于 pongWait
	maxMessageSize = 1024                // 客户端只发心跳
)

// MsgTypeSnapshotReloaded 快照热替换通知
const MsgTypeSnapshotReloaded = "snapshot_reloaded"

// ReloadMessage 推送给订阅者的消息
type ReloadMessage struct {
	Type        string    `json:"type"`
	SnapshotID  string    `json:"snapshot_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Tracks      int       `json:"tracks"`
	Timestamp   int64     `json:"timestamp"`
}

// Subscriber 一个 WebSocket 订阅连接
type Subscriber struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub 管理快照更新订阅者
type Hub struct {
	clients map[*Subscriber]bool

	register   chan *Subscriber
	unregister chan *Subscriber
	broadcast  chan []byte

	mu   sync.RWMutex
	done chan struct{}
	once sync.Once

	upgrader websocket.Upgrader
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Subscriber]bool),
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // 只读数据，允许任意来源
			},
		},
	}
}

// Run 启动 Hub 主循环
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.clients[s] = true
			h.mu.Unlock()

		case s := <-h.unregister:
			h.remove(s)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for s := range h.clients {
				select {
				case s.send <- msg:
				default:
					// 发送队列满，视为慢客户端
					delete(h.clients, s)
					close(s.send)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for s := range h.clients {
				delete(h.clients, s)
				close(s.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop 停止 Hub，可重复调用
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

func (h *Hub) remove(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[s]; ok {
		delete(h.clients, s)
		close(s.send)
	}
}

// ClientCount 当前订阅者数量
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NotifyReload 广播快照替换消息；Hub 已停止或队列满时丢弃
func (h *Hub) NotifyReload(snap *model.Snapshot) {
	msg := ReloadMessage{
		Type:      MsgTypeSnapshotReloaded,
		Tracks:    len(snap.Tracks),
		Timestamp: time.Now().UnixMilli(),
	}
	if snap.Meta != nil {
		msg.SnapshotID = snap.Meta.ID
		msg.GeneratedAt = snap.Meta.GeneratedAt
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Warn("[Hub] encode reload message failed", logger.ErrorField(err))
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		logger.Warn("[Hub] broadcast queue full, dropping reload notice")
	}
}

// ServeWS GET /ws/snapshots 升级为订阅连接
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("[Hub] websocket upgrade failed", logger.ErrorField(err))
		return
	}

	s := &Subscriber{hub: h, conn: conn, send: make(chan []byte, 16)}
	select {
	case h.register <- s:
	case <-h.done:
		conn.Close()
		return
	}

	go s.writePump()
	go s.readPump()

	logger.Debug("[Hub] subscriber connected", logger.String("remote", r.RemoteAddr))
}

// readPump 只处理控制帧和关闭；客户端发来的数据被忽略
func (s *Subscriber) readPump() {
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("[Hub] websocket read error", logger.ErrorField(err))
			}
			return
		}
	}
}

func (s *Subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了通道
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
