package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/thereayou/pollchat/internal/chat"
	"github.com/thereayou/pollchat/internal/config"
	"github.com/thereayou/pollchat/internal/database"
	"github.com/thereayou/pollchat/internal/handlers"
	"github.com/thereayou/pollchat/internal/memory"
	"github.com/thereayou/pollchat/internal/metrics"
	"github.com/thereayou/pollchat/internal/middleware"
	"github.com/thereayou/pollchat/internal/services"
	"github.com/thereayou/pollchat/pkg/auth"
)

type Server struct {
	Config     *config.Config
	Log        *slog.Logger
	Router     *gin.Engine
	DB         *gorm.DB
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Blacklist  auth.Blacklist
	Limiter    *middleware.PostLimiter
	Metrics    *metrics.Metrics
	Chat       *chat.Service
	AuthH      *handlers.AuthHandler
	MessageH   *handlers.HTTPMessageHandler
	TypingH    *handlers.TypingHandler
}

// store is what both row-store backends provide.
type store interface {
	chat.UserDirectory
	chat.MessageLog
	services.CredentialStore
}

type memoryStore struct {
	*memory.Directory
	*memory.MessageLog
}

func NewServer(cfg *config.Config, log *slog.Logger, clock chat.Clock) (*Server, error) {
	s := &Server{Config: cfg, Log: log}
	presence := chat.Presence{StaleAfter: cfg.Chat.StaleAfter, TypingWindow: cfg.Chat.TypingWindow}

	var rows store
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		rows = memoryStore{memory.NewDirectory(presence), memory.NewMessageLog()}
	default:
		db, err := database.Connect(cfg.Storage.Driver, cfg.Storage.DatabaseURL, log)
		if err != nil {
			return nil, fmt.Errorf("database connect failed: %w", err)
		}
		s.DB = db
		rows = database.NewDatabase(db, presence)
	}

	if cfg.Redis.URL != "" {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis connect failed: %w", err)
		}
		s.Redis = rdb
		s.Blacklist = auth.NewRedisBlacklist(rdb)
	} else {
		s.Blacklist = auth.NewMemoryBlacklist(clock.Now)
	}

	if cfg.RateLimit.PostsPerSecond > 0 {
		s.Limiter = middleware.NewPostLimiter(cfg.RateLimit.PostsPerSecond, cfg.RateLimit.Burst)
	}

	s.Metrics = metrics.New()
	s.JWTManager = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.JWTIssuer)
	s.Chat = chat.NewService(log, rows, rows,
		chat.WithObserver(s.Metrics),
		chat.WithRecentLimit(cfg.Chat.RecentLimit),
	)

	s.AuthH = handlers.NewAuthHandler(services.NewAuthService(rows), s.Chat, s.JWTManager, s.Blacklist, clock, log)
	s.MessageH = handlers.NewHTTPMessageHandler(s.Chat, clock, cfg.Chat.Location(), log)
	s.TypingH = handlers.NewTypingHandler(s.Chat, clock, log)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))
	APIEndpoints(router, s)
	s.Router = router

	return s, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.Config.Server.Host + ":" + strconv.Itoa(s.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router,
		ReadTimeout:  s.Config.Server.ReadTimeout,
		WriteTimeout: s.Config.Server.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.Log.Info("server starting", "address", addr, "storage", s.Config.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server run error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.Log.Info("shutting down gracefully")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) Close() {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
