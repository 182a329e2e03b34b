package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/freelancerking/net32-admin/app/auth"
	"github.com/freelancerking/net32-admin/app/products"
	"github.com/freelancerking/net32-admin/app/settings"
	"github.com/freelancerking/net32-admin/app/users"
	"github.com/freelancerking/net32-admin/config"
	"github.com/freelancerking/net32-admin/models"
	"github.com/freelancerking/net32-admin/net32"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := newLogger(cfg.Server.AppEnv)
	defer logger.Sync()

	db, err := models.OpenDatabase(
		cfg.Postgres.DSN(),
		cfg.Postgres.MaxOpenConns,
		cfg.Postgres.MaxIdleConns,
		time.Duration(cfg.Postgres.ConnMaxLifetime)*time.Second,
	)
	if err != nil {
		logger.Fatal("could not connect to database", zap.Error(err))
	}
	logger.Info("connected to database", zap.String("db_name", cfg.Postgres.DBName))

	if err := db.AutoMigrate(&models.Product{}, &models.User{}, &models.Settings{}); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	models.StartKeepAlive(db, logger)

	productsRepo := models.NewProductsRepository(db)
	usersRepo := models.NewUsersRepository(db)
	settingsRepo := models.NewSettingsRepository(db)

	apiClient := net32.NewClient(net32.Config{
		BaseURL:                  cfg.Net32.BaseURL,
		InventoryURL:             cfg.Net32.InventoryURL,
		SubscriptionKey:          cfg.Net32.SubscriptionKey,
		InventorySubscriptionKey: cfg.Net32.InventorySubscriptionKey,
		Timeout:                  time.Duration(cfg.Net32.TimeoutSeconds) * time.Second,
	}, logger)

	sessions := auth.NewSessionStore(time.Duration(cfg.Session.TTLMinutes) * time.Minute)

	authHandler := auth.NewAuthHandler(usersRepo, sessions, logger)
	productsHandler := products.NewProductsHandler(productsRepo, apiClient, settingsRepo, logger)
	usersHandler := users.NewUsersHandler(usersRepo, logger)
	settingsHandler := settings.NewSettingsHandler(settingsRepo, logger)

	protected := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAuth(sessions, h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", authHandler.HandleLoginPage)
	mux.HandleFunc("POST /login", authHandler.HandleLogin)
	mux.HandleFunc("GET /logout", authHandler.HandleLogout)

	mux.Handle("GET /products", protected(productsHandler.HandleList))
	mux.Handle("GET /products/search/ajax", protected(productsHandler.HandleSearchAjax))
	mux.Handle("POST /products/update/{id}", protected(productsHandler.HandleUpdate))
	mux.Handle("POST /products/batchUpdate", protected(productsHandler.HandleBatchUpdate))
	mux.Handle("POST /products/add", protected(productsHandler.HandleAdd))
	mux.Handle("POST /products/delete/{id}", protected(productsHandler.HandleDelete))
	mux.Handle("POST /products/fetchProduct", protected(productsHandler.HandleFetchProduct))
	mux.Handle("POST /products/updateActive/{id}", protected(productsHandler.HandleUpdateActive))
	mux.Handle("POST /products/updateInventory", protected(productsHandler.HandleUpdateInventory))

	mux.Handle("GET /users", protected(usersHandler.HandleList))
	mux.Handle("POST /users/add", protected(usersHandler.HandleAdd))
	mux.Handle("POST /users/edit/{id}", protected(usersHandler.HandleEdit))
	mux.Handle("POST /users/delete/{id}", protected(usersHandler.HandleDelete))

	mux.Handle("GET /settings", protected(settingsHandler.HandleGet))
	mux.Handle("POST /settings", protected(settingsHandler.HandleSave))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: requestLogger(logger, mux),
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(appEnv string) *zap.Logger {
	if appEnv == "development" {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
