package bootstrap

import (
	"context"
	"log"

	"freewrite-assistant/internal/config"
	"freewrite-assistant/internal/devserver"
	"freewrite-assistant/internal/dispatcher"
	"freewrite-assistant/internal/handler"
	"freewrite-assistant/internal/notice"
	"freewrite-assistant/internal/pkg/logger"
	"freewrite-assistant/internal/repository/contract"
	"freewrite-assistant/internal/repository/implementation"
	"freewrite-assistant/internal/repository/memory"
	"freewrite-assistant/internal/server"
	"freewrite-assistant/internal/websocket"
	"freewrite-assistant/pkg/document"
	"freewrite-assistant/pkg/extractor"
	"freewrite-assistant/pkg/insertion"
	pktNats "freewrite-assistant/pkg/nats"

	"github.com/redis/go-redis/v9"
)

// Container holds one assistant session: a document, the dispatcher working
// on it and the transport feeding it.
type Container struct {
	Logger     logger.ILogger
	Document   *document.Memory
	Loop       *dispatcher.Loop
	Engine     *insertion.Engine
	Dispatcher *dispatcher.Dispatcher
	Client     *websocket.Client
	Notices    *notice.Bus
	Ratings    contract.RatingRepository

	publisher *pktNats.Publisher
	rdb       *redis.Client
}

func NewContainer(cfg *config.Config, doc *document.Memory) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	transportLogger := logger.NewIsolatedLogger(cfg.App.TransportLogPath)

	c := &Container{
		Logger:   sysLogger,
		Document: doc,
		Loop:     dispatcher.NewLoop(256),
		Notices:  notice.NewBus(notice.NewPubSub(), sysLogger),
	}

	// 2. Stores
	c.Ratings = c.ratingRepository(cfg)

	// 3. Usage events (optional)
	var events dispatcher.EventPublisher
	if cfg.Store.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Store.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			c.publisher = natsPub
			events = natsPub
		}
	}

	// 4. Engine, transport and dispatcher, all driven by the loop
	scheduler := insertion.NewTimerScheduler(func(fn func()) { c.Loop.Post(fn) })
	c.Engine = insertion.NewEngine(doc, insertion.Config{
		HighlightColor:    cfg.Assistant.HighlightColor,
		HighlightDuration: cfg.Assistant.HighlightDuration,
	}, scheduler)

	c.Client = websocket.NewClient(websocket.Options{
		URL:              cfg.Backend.WebSocketURL,
		Token:            cfg.Backend.Token,
		ReconnectBackoff: cfg.Backend.ReconnectBackoff,
		WriteWait:        cfg.Backend.WriteWait,
		Logger:           transportLogger,
	}, func(data []byte) {
		c.Loop.Post(func() { c.Dispatcher.Handle(data) })
	})

	c.Dispatcher = dispatcher.New(doc, c.Engine, c.Client, dispatcher.Options{
		ThreadID: cfg.Assistant.ThreadID,
		Extractor: extractor.New(extractor.Config{
			MinChars:        cfg.Assistant.MinContextChars,
			SentenceTarget:  cfg.Assistant.SentenceTarget,
			ParagraphTarget: cfg.Assistant.ParagraphTarget,
		}),
		Ratings:  c.Ratings,
		Notifier: c.Notices,
		Events:   events,
		Logger:   sysLogger,
	})

	return c
}

func (c *Container) ratingRepository(cfg *config.Config) contract.RatingRepository {
	if cfg.Store.RatingStore != "redis" {
		return memory.NewRatingRepository(cfg.Store.RatingTTL)
	}

	opt, err := redis.ParseURL(cfg.Store.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.Store.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Ratings are kept in memory", err)
		rdb.Close()
		return memory.NewRatingRepository(cfg.Store.RatingTTL)
	}
	c.rdb = rdb
	return implementation.NewRatingRepositoryRedis(rdb, cfg.Store.RatingTTL)
}

// Start runs the loop and the transport until ctx is done.
func (c *Container) Start(ctx context.Context) {
	go c.Loop.Run(ctx)
	go func() {
		if err := c.Client.Run(ctx); err != nil && ctx.Err() == nil {
			c.Logger.Error("Container", "Transport stopped", map[string]interface{}{"error": err})
		}
	}()
}

// Close releases the connections opened by the container.
func (c *Container) Close() {
	if c.publisher != nil {
		c.publisher.Close()
	}
	if c.rdb != nil {
		c.rdb.Close()
	}
	if err := c.Notices.Close(); err != nil {
		log.Printf("[WARN] Failed to close notice bus: %v", err)
	}
	_ = c.Logger.Sync()
}

// BackendContainer holds the development generation backend.
type BackendContainer struct {
	Logger logger.ILogger
	Hub    *devserver.Hub
	Server *server.Server
}

func NewBackendContainer(cfg *config.Config) *BackendContainer {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	hub := devserver.NewHub(sysLogger)
	streams := handler.NewStreamHandler(hub, devserver.NewGenerator(cfg.DevServer.FragmentDelay), cfg.DevServer.JWTSecret, sysLogger)

	return &BackendContainer{
		Logger: sysLogger,
		Hub:    hub,
		Server: server.New(cfg, streams),
	}
}
