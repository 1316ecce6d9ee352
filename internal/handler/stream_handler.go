package handler

import (
	"freewrite-assistant/internal/devserver"
	"freewrite-assistant/internal/pkg/logger"
	"freewrite-assistant/internal/pkg/serverutils"
	"freewrite-assistant/pkg/protocol"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// StreamHandler serves the generation protocol over websocket.
type StreamHandler struct {
	hub       *devserver.Hub
	generator *devserver.Generator
	jwtSecret string
	validate  *validator.Validate
	logger    logger.ILogger
}

// NewStreamHandler creates the handler. An empty jwtSecret accepts anonymous connections.
func NewStreamHandler(hub *devserver.Hub, gen *devserver.Generator, jwtSecret string, log logger.ILogger) *StreamHandler {
	return &StreamHandler{
		hub:       hub,
		generator: gen,
		jwtSecret: jwtSecret,
		validate:  validator.New(),
		logger:    log,
	}
}

// ServeWs authenticates the handshake and upgrades the connection.
func (h *StreamHandler) ServeWs(c *fiber.Ctx) error {
	userID := "anonymous"
	if h.jwtSecret != "" {
		id, err := serverutils.ParseToken(serverutils.BearerToken(c), h.jwtSecret)
		if err != nil {
			h.logger.Warn("StreamHandler", "Rejected websocket handshake", map[string]interface{}{"error": err})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		userID = id
	}

	// Upgrade via Fiber WebSocket Middleware
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			peer := devserver.NewPeer(h.hub, conn, h.generator, userID, h.logger)
			h.logger.Info("StreamHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID, "peer_id": peer.ID})
			peer.Serve()
			h.logger.Info("StreamHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID, "peer_id": peer.ID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// Health reports liveness and the number of open sessions.
func (h *StreamHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "connections": h.hub.Count()})
}

// SimulateError pushes an error envelope to every open session.
func (h *StreamHandler) SimulateError(c *fiber.Ctx) error {
	type Request struct {
		Error   protocol.ErrorCode `json:"error" validate:"required,oneof=tokens_used openai_error max_tokens"`
		Message string             `json:"message"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	sent := h.hub.Broadcast(protocol.Envelope{Error: req.Error, Message: req.Message})
	return c.JSON(fiber.Map{"status": "Error Sent", "sessions": sent})
}

// RegisterRoutes registers the backend routes.
func (h *StreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/healthz", h.Health)

	debug := router.Group("/debug")
	debug.Post("/error", h.SimulateError)

	// WebSocket
	router.Get("/ws", h.ServeWs)
}
