package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/k0723/mini3/internal/config"
	"github.com/k0723/mini3/internal/db"
	"github.com/k0723/mini3/internal/handlers"
	mw "github.com/k0723/mini3/internal/middleware"
	"github.com/k0723/mini3/internal/sentiment"
	"github.com/k0723/mini3/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	dbConn, err := sqlx.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open db", zap.Error(err))
	}
	dbConn.SetMaxOpenConns(10)
	dbConn.SetConnMaxLifetime(2 * time.Hour)
	if err := dbConn.Ping(); err != nil {
		logger.Fatal("failed to ping db", zap.Error(err))
	}
	if err := db.RunMigrations(dbConn); err != nil {
		logger.Fatal("failed migrations", zap.Error(err))
	}

	presigner, err := storage.NewS3Presigner(context.Background(), cfg.AWS)
	if err != nil {
		logger.Fatal("failed to init s3 presigner", zap.Error(err))
	}

	classifier := sentiment.NewClovaClient(cfg.ClovaAPIKey, cfg.ClovaAPIURL)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(mw.ZapRequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handlers.NewAuthHandler(dbConn, []byte(cfg.JWTSecret), cfg.TokenTTL)
	adminHandler := handlers.NewAdminHandler(dbConn)
	oauthHandler := handlers.NewOAuthHandler(dbConn, cfg.Google, []byte(cfg.JWTSecret), cfg.TokenTTL, cfg.FrontendURL, logger)
	diaryHandler := handlers.NewDiaryHandler(dbConn, classifier, presigner, logger)
	authMW := mw.NewAuthMiddleware([]byte(cfg.JWTSecret))

	r.Route("/users", func(ur chi.Router) {
		ur.Post("/signup", authHandler.Signup)
		ur.Post("/signin", authHandler.Signin)
		ur.Get("/checkemail/{email}", authHandler.CheckEmail)
		ur.Get("/checkusername/{username}", authHandler.CheckUsername)
		ur.Get("/google/login", oauthHandler.Login)
		ur.Get("/google/callback", oauthHandler.Callback)
	})

	r.Route("/diarys", func(dr chi.Router) {
		dr.Group(func(or chi.Router) {
			or.Use(authMW.OptionalAuth)
			or.Get("/", diaryHandler.List)
			or.Get("/list/search", diaryHandler.Search)
			or.Get("/{id}", diaryHandler.Get)
		})
		dr.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)
			pr.Post("/", diaryHandler.Create)
			pr.Put("/{id}", diaryHandler.Update)
			pr.Delete("/{id}", diaryHandler.Delete)
			pr.Delete("/", diaryHandler.DeleteAll)
			pr.Get("/check-duplicate", diaryHandler.CheckDuplicate)
			pr.Get("/presigned-url", diaryHandler.PresignUpload)
			pr.Get("/download-url", diaryHandler.PresignDownload)
			pr.Get("/download/s3/{id}", diaryHandler.DownloadByID)
		})
	})

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(authMW.RequireAuth)
		ar.Get("/overview", adminHandler.Overview)
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown initiated")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	_ = dbConn.Close()
	logger.Info("server stopped")
}
