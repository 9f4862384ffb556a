// Package router wires handlers, middleware and probes into a gin engine.
package router

import (
	"net/http"

	"task-manager/api/internal/config"
	"task-manager/api/internal/database"
	"task-manager/api/internal/handlers"
	"task-manager/api/internal/middleware"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthMode states how a route authenticates its caller.
type AuthMode int

const (
	AuthNone AuthMode = iota
	AuthToken
)

type Route struct {
	Name    string
	Method  string
	Path    string
	Auth    AuthMode
	Handler gin.HandlerFunc
}

type Dependencies struct {
	DB      *gorm.DB
	Pool    *database.DatabasePool
	Config  *config.Config
	Logger  *log.Logger
	Monitor *monitoring.Monitor
}

// APIRoutes returns the /api route table.
func APIRoutes(db *gorm.DB, cfg *config.Config, logger *log.Logger) []Route {
	auth := handlers.NewAuthHandler(db, services.NewAuthService(cfg.Auth, logger))
	tasks := handlers.NewTaskHandler(db, services.NewTaskService(logger))
	projects := handlers.NewProjectHandler(db, services.NewProjectService(logger))
	dashboard := handlers.NewDashboardHandler(db)

	return []Route{
		{"register", http.MethodPost, "/api/auth/register", AuthNone, auth.Register},
		{"login", http.MethodPost, "/api/auth/login", AuthNone, auth.Login},
		{"logout", http.MethodPost, "/api/auth/logout", AuthToken, auth.Logout},
		{"me", http.MethodGet, "/api/auth/me", AuthToken, auth.Me},

		{"projects", http.MethodGet, "/api/projects", AuthToken, projects.ListProjects},
		{"projects", http.MethodPost, "/api/projects", AuthToken, projects.CreateProject},
		{"project-detail", http.MethodGet, "/api/projects/:id", AuthToken, projects.GetProject},
		{"project-detail", http.MethodPut, "/api/projects/:id", AuthToken, projects.UpdateProject},
		{"project-detail", http.MethodPatch, "/api/projects/:id", AuthToken, projects.UpdateProject},
		{"project-detail", http.MethodDelete, "/api/projects/:id", AuthToken, projects.DeleteProject},

		{"tasks", http.MethodGet, "/api/tasks", AuthToken, tasks.ListTasks},
		{"tasks", http.MethodPost, "/api/tasks", AuthToken, tasks.CreateTask},
		{"task-detail", http.MethodGet, "/api/tasks/:id", AuthToken, tasks.GetTask},
		{"task-detail", http.MethodPut, "/api/tasks/:id", AuthToken, tasks.UpdateTask},
		{"task-detail", http.MethodPatch, "/api/tasks/:id", AuthToken, tasks.UpdateTask},
		{"task-detail", http.MethodDelete, "/api/tasks/:id", AuthToken, tasks.DeleteTask},
		{"task-toggle-complete", http.MethodPost, "/api/tasks/:id/toggle-complete", AuthToken, tasks.ToggleComplete},

		{"dashboard-summary", http.MethodGet, "/api/dashboard/summary", AuthToken, dashboard.Summary},
	}
}

func New(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RecoveryWithLog(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(cors.New(corsConfig(deps.Config.Server.AllowedOrigins)))
	if deps.Monitor != nil {
		r.Use(deps.Monitor.Middleware())
	}
	if deps.Config.RateLimit.Enabled {
		r.Use(middleware.NewRateLimiter(deps.Config.RateLimit).Middleware())
	}

	if deps.Monitor != nil {
		if deps.Pool != nil {
			deps.Monitor.RegisterHealthCheck("database", deps.Pool.Health)
		}
		r.GET("/health", deps.Monitor.HealthHandler)
		r.GET("/health/ready", deps.Monitor.ReadinessHandler)
		r.GET("/health/live", deps.Monitor.LivenessHandler)
		r.GET("/metrics", deps.Monitor.MetricsHandler)
	}

	routes := APIRoutes(deps.DB, deps.Config, deps.Logger)
	tokenAuth := middleware.TokenAuth(deps.DB, services.NewAuthService(deps.Config.Auth, deps.Logger), deps.Logger)
	for _, route := range routes {
		chain := []gin.HandlerFunc{}
		if route.Auth == AuthToken {
			chain = append(chain, tokenAuth, middleware.RequireAuth())
		}
		r.Handle(route.Method, route.Path, append(chain, route.Handler)...)
	}
	r.GET("/api", apiRoot(routes))

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// apiRoot lists each named endpoint once, keyed by name.
func apiRoot(routes []Route) gin.HandlerFunc {
	index := make(map[string]string)
	for _, route := range routes {
		if _, seen := index[route.Name]; !seen {
			index[route.Name] = route.Path
		}
	}

	return func(c *gin.Context) {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		out := make(map[string]string, len(index))
		for name, path := range index {
			out[name] = scheme + "://" + c.Request.Host + path
		}
		c.JSON(http.StatusOK, out)
	}
}
