package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EmpoweredVote/news-portal/internal/auth"
	"github.com/EmpoweredVote/news-portal/internal/config"
	"github.com/EmpoweredVote/news-portal/internal/content"
	"github.com/EmpoweredVote/news-portal/internal/db"
	"github.com/EmpoweredVote/news-portal/internal/metrics"
	"github.com/EmpoweredVote/news-portal/internal/middleware"
	"github.com/EmpoweredVote/news-portal/internal/revalidate"
	"github.com/EmpoweredVote/news-portal/internal/routes"
	"github.com/EmpoweredVote/news-portal/internal/webhooks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	if err := auth.Migrate(conn); err != nil {
		log.Fatal("Failed to migrate auth tables: ", err)
	}
	if err := content.Migrate(conn); err != nil {
		log.Fatal("Failed to migrate content tables: ", err)
	}

	m := metrics.New()

	users := auth.NewUserRepository(conn)
	sessions := auth.NewSessionStore(conn, cfg.SessionTTL)
	gate := auth.NewGate(auth.NewVerifier(users), sessions, users)

	cache, err := revalidate.NewPageCache(cfg.PageCacheSize)
	if err != nil {
		log.Fatal("Failed to create page cache: ", err)
	}

	var hooks *webhooks.Handler
	if cfg.RevalidateSecret != "" {
		hooks = webhooks.NewHandler(cfg.RevalidateSecret, cache)
	}

	r := routes.New(routes.Deps{
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Sessions:       gate,
		Auth:           auth.NewHandler(gate, cfg.Production(), m),
		Content:        content.NewHandler(content.NewRepository(conn), cache, m),
		LoginLimiter:   middleware.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst),
		PageCache:      cache.Middleware,
		Webhooks:       hooks,
		Metrics:        m,
		Ping:           db.Pinger(conn),
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on port :%s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error: ", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("Server stopped")
}
