package server

import (
	"encoding/json"
	"time"

	"backend-stride/internal/activity"
	"backend-stride/internal/auth"
	"backend-stride/internal/config"
	"backend-stride/internal/engine"
	"backend-stride/internal/notify"
	"backend-stride/internal/sensor"
	"backend-stride/internal/store"
	"backend-stride/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Engine  *engine.Engine
	Feed    *sensor.Feed
	Battery *sensor.BatteryReporter
	Stream  *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	staleAfter := time.Duration(cfg.SampleStaleSeconds) * time.Second
	feed := sensor.NewFeed(staleAfter)
	battery := sensor.NewBatteryReporter(0)

	var workoutStore *store.Service
	deps := engine.Deps{
		Sensors:  feed,
		Notifier: notify.NewPublisher(redisClient),
	}
	if db != nil {
		workoutStore = store.NewService(db)
		deps.Store = workoutStore
	}

	eng := engine.New(engine.Config{CountdownSeconds: cfg.CountdownSeconds}, deps)

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      db,
		Redis:   redisClient,
		Engine:  eng,
		Feed:    feed,
		Battery: battery,
		Stream:  stream.NewHub(redisClient),
	}

	// Every snapshot mutation goes out on the websocket hub. Broadcast
	// queues or drops frames instead of waiting, so the observer is safe
	// on the engine's dispatch path.
	eng.Subscribe(func(snap engine.Snapshot) {
		payload, err := json.Marshal(snap)
		if err != nil {
			return
		}
		s.Stream.Broadcast(payload)
	})

	registerRoutes(s, workoutStore)
	return s
}

func registerRoutes(s *Server, workoutStore *store.Service) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	ready := engine.NewReadinessChecker(s.Battery, s.Feed)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.Cfg.PairCodeHash))
	activity.RegisterRoutes(s.App.Group("/activity"), s.Engine, ready, s.Feed, s.Battery, jwtMiddleware)
	if workoutStore != nil {
		store.RegisterRoutes(s.App.Group("/workouts"), workoutStore, jwtMiddleware)
	}
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
