// Command sierra-server exposes the same Sierra Outfitters agent over HTTP:
// one conversation per session ID, POST /api/v1/chat per turn.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sierra-outfitters/sierra-agent/internal/app"
	"github.com/sierra-outfitters/sierra-agent/internal/config"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ FATAL: Configuration error: %v", err)
	}

	components, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}
	handler := NewChatHandler(components)
	log.Println("✅ All services initialized.")

	gin.SetMode(os.Getenv("GIN_MODE"))
	engine := gin.Default()
	engine.GET("/healthz", handler.HandleHealth)
	v1 := engine.Group("/api/v1")
	{
		v1.POST("/chat", handler.HandleChat)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: fmt.Sprintf(":%s", port), Handler: engine}
	runServerWithGracefulShutdown(srv)
}

// runServerWithGracefulShutdown handles the server lifecycle.
func runServerWithGracefulShutdown(srv *http.Server) {
	go func() {
		log.Printf("👂 Sierra agent is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Listen error: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("❌ Server shutdown failed:", err)
	}
	log.Println("👋 Server exited gracefully.")
}
