package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"gorm.io/gorm/logger"

	"github.com/camden-git/adminconsole/cache"
	"github.com/camden-git/adminconsole/client"
	"github.com/camden-git/adminconsole/config"
	"github.com/camden-git/adminconsole/database"
	"github.com/camden-git/adminconsole/editor"
	"github.com/camden-git/adminconsole/handlers"
	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/permissions"
	"github.com/camden-git/adminconsole/realtime"
	"github.com/camden-git/adminconsole/repository"
	"github.com/camden-git/adminconsole/services"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		log.Printf("Ensuring storage directory exists: %s", dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", dir, err)
		}
	}

	gormDB, err := database.InitGormDB(cfg.DatabasePath, logger.Warn)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("FATAL: Failed to get sql.DB: %v", err)
	}
	defer sqlDB.Close()

	if err := database.AutoMigrateModels(gormDB); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}

	roleRepo := repository.NewGormRoleRepository(gormDB)
	userRepo := repository.NewGormUserRepository(gormDB)
	permissionRepo := repository.NewGormPermissionRepository(gormDB)
	companyRepo := repository.NewGormCompanyRepository(gormDB)

	hub := realtime.NewHub(cfg.CORSAllowedOrigins...)
	go hub.Run()
	defer hub.Stop()

	rolePermissions := services.NewRolePermissionService(roleRepo, permissionRepo, hub, cfg.ProtectedRoleName)

	var store cache.Store
	if cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			log.Printf("Warning: %v; using in-process catalog cache", err)
			store = cache.NewMemoryStore()
		} else {
			defer redisStore.Close()
			log.Printf("Caching permission catalog in redis at %s", cfg.RedisAddr)
			store = redisStore
		}
	} else {
		store = cache.NewMemoryStore()
	}
	localCatalog := cache.NewCachedBackend(rolePermissions, store, cfg.CatalogCacheTTL)

	if err := handlers.SyncAdminRole(ctx, gormDB, rolePermissions, cfg.ProtectedRoleName); err != nil {
		log.Fatalf("FATAL: Failed to sync '%s' role: %v", cfg.ProtectedRoleName, err)
	}
	// the catalog may have changed with the seed
	if err := localCatalog.Invalidate(ctx); err != nil {
		log.Printf("Warning: failed to invalidate permission catalog cache: %v", err)
	}

	// permission editors run against the remote backend when one is configured
	var editorBackend editor.Backend = localCatalog
	lookupRole := handlers.RoleLookup(func(_ context.Context, id uint) (*models.Role, error) {
		return roleRepo.GetByID(id)
	})
	if cfg.BackendURL != "" {
		remote := client.New(cfg.BackendURL)
		if _, err := remote.Login(ctx, cfg.BackendEmail, cfg.BackendPassword); err != nil {
			log.Fatalf("FATAL: Failed to log in to backend %s: %v", cfg.BackendURL, err)
		}
		defer func() {
			logoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := remote.Logout(logoutCtx); err != nil {
				log.Printf("Warning: failed to log out of backend: %v", err)
			}
		}()
		log.Printf("Permission editors use the backend at %s", cfg.BackendURL)
		editorBackend = cache.NewCachedBackend(remote, store, cfg.CatalogCacheTTL).WithKey("remote:" + cache.CatalogKey)
		lookupRole = remote.GetRole
	}

	registry := editor.NewRegistry(cfg.EditorIdleTimeout)
	go registry.Run(cfg.EditorSweepInterval)
	defer registry.Stop()

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.JWTExpiration)
	setupHandler := handlers.NewSetupHandler(gormDB, cfg.ProtectedRoleName)
	permissionHandler := handlers.NewPermissionHandler(localCatalog)
	permissionsHandler := handlers.NewPermissionsHandler()
	roleHandler := handlers.NewAdminRoleHandler(roleRepo, rolePermissions)
	userHandler := handlers.NewAdminUserHandler(userRepo, roleRepo, cfg.ReportPageSize)
	companyHandler := handlers.NewCompanyHandler(companyRepo)
	reportHandler := handlers.NewReportHandler(sqlDB, companyRepo, cfg.ReportPageSize)
	editorHandler := handlers.NewEditorHandler(registry, editorBackend, lookupRole, cfg.ProtectedRoleName)

	need := handlers.RequirePermission

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/setup/first-admin", setupHandler.CreateFirstAdmin)
		r.Get("/ws", hub.ServeWS)

		r.Group(func(r chi.Router) {
			r.Use(handlers.AuthMiddleware(cfg.JWTSecret, userRepo))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/profile", authHandler.Profile)

			r.Route("/Permisos", func(r chi.Router) {
				r.Use(handlers.RequireAnyPermission(permissions.ViewRoles, permissions.EditRoles))
				r.Get("/", permissionHandler.ListPermissions)
				r.Get("/grupos", permissionHandler.ListPermissionGroups)
				r.Get("/definiciones", permissionsHandler.ListDefinedModules)
			})

			r.Route("/roles", func(r chi.Router) {
				r.With(need(permissions.ViewRoles)).Get("/", roleHandler.ListRoles)
				r.With(need(permissions.CreateRoles)).Post("/", roleHandler.CreateRole)
				r.Route("/{roleID}", func(r chi.Router) {
					r.With(need(permissions.ViewRoles)).Get("/", roleHandler.GetRole)
					r.With(need(permissions.EditRoles)).Put("/", roleHandler.UpdateRole)
					r.With(need(permissions.DeleteRoles)).Delete("/", roleHandler.DeleteRole)
					r.With(need(permissions.ViewRoles)).Get("/usuarios", roleHandler.ListRoleUsers)
					r.With(need(permissions.ViewRoles)).Get("/permisos", roleHandler.GetRolePermissions)
					r.With(need(permissions.EditRoles)).Post("/permisos", roleHandler.AddRolePermissions)
				})
			})
			r.With(need(permissions.EditRoles)).Put("/RolPermisos/{roleID}/actualizar-permisos", roleHandler.ReplaceRolePermissions)

			r.Route("/editors", func(r chi.Router) {
				r.Use(need(permissions.EditRoles))
				r.Post("/", editorHandler.OpenEditor)
				r.Route("/{editorID}", func(r chi.Router) {
					r.Get("/", editorHandler.GetEditor)
					r.Delete("/", editorHandler.CloseEditor)
					r.Put("/filtro", editorHandler.SetFilter)
					r.Post("/permisos/{permissionID}/toggle", editorHandler.TogglePermission)
					r.Post("/grupos/seleccion", editorHandler.ToggleGroup)
					r.Post("/grupos/expandir", editorHandler.ToggleExpanded)
					r.Post("/seleccion", editorHandler.ToggleAllVisible)
					r.Post("/guardar", editorHandler.SaveEditor)
				})
			})

			r.Route("/usuario", func(r chi.Router) {
				r.With(need(permissions.ViewUsers)).Get("/", userHandler.ListUsers)
				r.With(need(permissions.CreateUsers)).Post("/", userHandler.CreateUser)
				r.Route("/{userID}", func(r chi.Router) {
					r.With(need(permissions.ViewUsers)).Get("/", userHandler.GetUser)
					r.With(need(permissions.EditUsers)).Put("/", userHandler.UpdateUser)
					r.With(need(permissions.DeleteUsers)).Delete("/", userHandler.DeleteUser)
				})
			})
			r.With(need(permissions.ViewUserReports)).Get("/Usuario/reporte", reportHandler.UserReport)

			r.Route("/Empresa", func(r chi.Router) {
				r.With(need(permissions.ViewContact)).Get("/", companyHandler.GetCompany)
				r.With(need(permissions.EditContact)).Put("/", companyHandler.UpdateCompany)
			})
		})
	})

	serverAddr := ":" + cfg.Port
	fmt.Printf("Server starting on http://localhost:%s\n", cfg.Port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: server shutdown: %v", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("FATAL: %v", err)
	}
	log.Println("Server stopped")
}
