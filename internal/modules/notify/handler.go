package notify

import (
	"net/http"

	"techservice/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // CORS middleware gates browsers
}

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterProtectedRoutes binds the client-facing websocket endpoint; callers
// must place it behind JWTAuth.
func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.GET("/ws", h.Serve)
}

// RegisterInternalRoutes binds the ingest endpoint other backend services
// POST events to; callers must place it behind InternalTokenAuth.
func (h *Handler) RegisterInternalRoutes(internal *gin.RouterGroup) {
	internal.POST("/notify", h.Ingest)
}

func (h *Handler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response
		return
	}

	client := &connection{
		userID: c.GetInt64("user_id"),
		conn:   conn,
		send:   make(chan []byte, 16),
	}
	h.hub.register(client)

	go client.writeLoop()
	go client.readLoop(h.hub)
}

// Ingest receives a JSON event from another backend service and broadcasts
// it to every connected websocket client.
func (h *Handler) Ingest(c *gin.Context) {
	var event map[string]any
	if err := c.ShouldBindJSON(&event); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}

	h.hub.Publish(event)
	response.Success(c, http.StatusOK, gin.H{"delivered_to": h.hub.ConnectionCount()})
}
