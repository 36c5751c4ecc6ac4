package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"libris/internal/admin"
	"libris/internal/auth"
	"libris/internal/borrowers"
	"libris/internal/catalog"
	"libris/internal/circulation"
	"libris/internal/config"
	"libris/internal/observability"
	"libris/internal/reports"
	"libris/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	shutdownTracing, err := observability.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	adminSvc := admin.NewService(db, tokens)
	if err := adminSvc.Bootstrap(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to bootstrap admin account: %v", err)
	}

	circulationStore := circulation.NewPostgresStore(db)
	circulationSvc := circulation.NewService(circulationStore, circulationStore)

	adminHandler := admin.NewHandler(adminSvc)
	catalogHandler := catalog.NewHandler(catalog.NewService(db))
	borrowerHandler := borrowers.NewHandler(borrowers.NewService(db, tokens))
	circulationHandler := circulation.NewHandler(circulationSvc)
	reportsHandler := reports.NewHandler(reports.NewService(db))

	registerLimiter := auth.NewIPRateLimiter(5, time.Minute)
	defer registerLimiter.Close()
	checkoutLimiter := auth.NewIPRateLimiter(5, time.Minute)
	defer checkoutLimiter.Close()

	requireAdmin := tokens.Require(auth.RoleAdmin)
	requireBorrower := tokens.Require(auth.RoleBorrower)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			adminHandler.PublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				adminHandler.AdminRoutes(r)
			})
		})
		r.Route("/books", func(r chi.Router) {
			catalogHandler.PublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				catalogHandler.AdminRoutes(r)
			})
		})
		r.Route("/borrowers", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(registerLimiter.Middleware)
				borrowerHandler.PublicRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				borrowerHandler.AdminRoutes(r)
			})
		})
		r.Route("/borrows", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(requireBorrower, checkoutLimiter.Middleware)
				circulationHandler.BorrowerRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				circulationHandler.AdminRoutes(r)
			})
		})
		r.Route("/analytics", func(r chi.Router) {
			r.Use(requireAdmin)
			reportsHandler.Routes(r)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("libris listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("Tracing shutdown: %v", err)
	}
}
