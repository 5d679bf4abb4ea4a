package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fdg312/fithub/internal/admin"
	"github.com/fdg312/fithub/internal/auth"
	"github.com/fdg312/fithub/internal/blob"
	"github.com/fdg312/fithub/internal/community"
	"github.com/fdg312/fithub/internal/config"
	"github.com/fdg312/fithub/internal/equipment"
	"github.com/fdg312/fithub/internal/mailer"
	"github.com/fdg312/fithub/internal/metrics"
	"github.com/fdg312/fithub/internal/notifications"
	"github.com/fdg312/fithub/internal/nutrition"
	"github.com/fdg312/fithub/internal/profiles"
	"github.com/fdg312/fithub/internal/reports"
	"github.com/fdg312/fithub/internal/storage"
	"github.com/fdg312/fithub/internal/storage/memory"
	"github.com/fdg312/fithub/internal/storage/postgres"
	"github.com/fdg312/fithub/internal/workouts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const (
	metricsNamespace = "fithub"
	metricsSubsystem = "api"
)

// Server HTTP сервер приложения
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	registry       *prometheus.Registry
	metrics        *metrics.Manager
	sender         mailer.Sender
	blobStore      blob.Store
	authMiddleware *auth.Middleware
	sweeper        *equipment.Sweeper
	httpServer     *http.Server
}

// New создаёт сервер: storage (Memory или Postgres), blob store и маршруты.
func New(cfg *config.Config) (*Server, error) {
	st := initStorage(cfg)

	blobStore, mode, err := blob.NewBlobStore(context.Background(), cfg.Blob)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init blob store: %w", err)
	}
	log.Infof("reports delivery: %s", deliveryFor(mode))

	sender, err := mailer.NewSenderFromConfig(cfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init mailer: %w", err)
	}

	return NewWithDeps(cfg, st, blobStore, sender), nil
}

// NewWithDeps wires a server on top of already constructed dependencies.
// A nil blob store streams reports to the client.
func NewWithDeps(cfg *config.Config, st storage.Storage, blobStore blob.Store, sender mailer.Sender) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if sender == nil {
		sender = mailer.NewLocalSender()
	}

	s := &Server{
		config:    cfg,
		mux:       http.NewServeMux(),
		storage:   st,
		registry:  registry,
		metrics:   metrics.NewManager(metricsNamespace, metricsSubsystem, registry),
		sender:    sender,
		blobStore: blobStore,
	}
	s.routes()
	return s
}

// initStorage выбирает storage: in-memory без DATABASE_URL, иначе Postgres.
func initStorage(cfg *config.Config) storage.Storage {
	if cfg.DatabaseURL == "" {
		log.Info("storage: using in-memory storage")
		return memory.New()
	}

	log.Info("storage: connecting to PostgreSQL")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pgStorage, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Warn("storage: PostgreSQL unavailable, falling back to in-memory storage")
		return memory.New()
	}

	log.Info("storage: PostgreSQL connected")
	return pgStorage
}

// routes регистрирует маршруты
func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	if s.config.MetricsEnabled {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	// Notifications first: every other feature notifies through it.
	hub := notifications.NewHub(s.metrics)
	notificationService := notifications.NewService(
		s.storage.Notifications(), s.storage.Users(), hub, s.sender, s.metrics,
	)
	notificationHandler := notifications.NewHandler(notificationService)

	s.mux.HandleFunc("GET /v1/notifications", notificationHandler.HandleList)
	s.mux.HandleFunc("GET /v1/notifications/unread-count", notificationHandler.HandleUnreadCount)
	s.mux.HandleFunc("POST /v1/notifications/mark-all-read", notificationHandler.HandleMarkAllRead)
	s.mux.HandleFunc("GET /v1/notifications/stream", notificationHandler.HandleStream)

	// Auth API
	authService := auth.NewService(s.config, s.storage.Users(), s.sender)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(authService)

	s.mux.HandleFunc("POST /v1/auth/register", authHandler.HandleRegister)
	s.mux.HandleFunc("POST /v1/auth/login", authHandler.HandleLogin)
	s.mux.HandleFunc("GET /v1/auth/me", authHandler.HandleMe)

	// Nutrition API
	nutritionService := nutrition.NewService(
		s.storage.Profiles(), s.storage.NutritionGoals(), s.storage.NutritionLogs(), notificationService,
	)
	nutritionHandler := nutrition.NewHandler(nutritionService)

	s.mux.HandleFunc("POST /v1/nutrition/goals/preview", nutritionHandler.HandlePreview)
	s.mux.HandleFunc("POST /v1/nutrition/goals/compute", nutritionHandler.HandleCompute)
	s.mux.HandleFunc("GET /v1/nutrition/goals", nutritionHandler.HandleGetGoals)
	s.mux.HandleFunc("PUT /v1/nutrition/goals", nutritionHandler.HandlePutGoals)
	s.mux.HandleFunc("POST /v1/nutrition/logs", nutritionHandler.HandleCreateLog)
	s.mux.HandleFunc("GET /v1/nutrition/logs", nutritionHandler.HandleListLogs)
	s.mux.HandleFunc("DELETE /v1/nutrition/logs/{id}", nutritionHandler.HandleDeleteLog)
	s.mux.HandleFunc("GET /v1/nutrition/summary", nutritionHandler.HandleSummary)

	// Profile API: сохранение профиля пересчитывает цели
	profileService := profiles.NewService(s.storage.Profiles(), nutritionService)
	profileHandler := profiles.NewHandler(profileService)

	s.mux.HandleFunc("GET /v1/profile", profileHandler.HandleGet)
	s.mux.HandleFunc("PUT /v1/profile", profileHandler.HandlePut)

	// Workouts API
	workoutService := workouts.NewService(s.storage.Workouts())
	workoutHandler := workouts.NewHandlers(workoutService)

	s.mux.HandleFunc("POST /v1/workouts", workoutHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/workouts", workoutHandler.HandleList)
	s.mux.HandleFunc("GET /v1/workouts/stats", workoutHandler.HandleStats)
	s.mux.HandleFunc("GET /v1/workouts/{id}", workoutHandler.HandleGet)
	s.mux.HandleFunc("PATCH /v1/workouts/{id}", workoutHandler.HandleUpdate)
	s.mux.HandleFunc("DELETE /v1/workouts/{id}", workoutHandler.HandleDelete)
	s.mux.HandleFunc("GET /v1/leaderboard", workoutHandler.HandleLeaderboard)

	// Equipment & maintenance API
	equipmentService := equipment.NewService(s.storage.Equipment())
	equipmentHandler := equipment.NewHandler(equipmentService)

	s.mux.HandleFunc("POST /v1/equipment", equipmentHandler.HandleCreateEquipment)
	s.mux.HandleFunc("GET /v1/equipment", equipmentHandler.HandleListEquipment)
	s.mux.HandleFunc("DELETE /v1/equipment/{id}", equipmentHandler.HandleDeleteEquipment)
	s.mux.HandleFunc("POST /v1/equipment/{id}/maintenance", equipmentHandler.HandleCreateTask)
	s.mux.HandleFunc("GET /v1/maintenance", equipmentHandler.HandleListTasks)
	s.mux.HandleFunc("POST /v1/maintenance/{id}/complete", equipmentHandler.HandleCompleteTask)

	s.sweeper = equipment.NewSweeper(
		s.storage.Equipment(),
		notificationService,
		s.metrics,
		time.Duration(s.config.MaintenanceSweepMinutes)*time.Minute,
	)

	// Community API
	communityService := community.NewService(
		s.storage.Community(), s.storage.Users(), s.storage.Workouts(), notificationService,
	)
	communityHandler := community.NewHandler(communityService)

	s.mux.HandleFunc("POST /v1/community/posts", communityHandler.HandleCreatePost)
	s.mux.HandleFunc("GET /v1/community/posts", communityHandler.HandleListPosts)
	s.mux.HandleFunc("DELETE /v1/community/posts/{id}", communityHandler.HandleDeletePost)
	s.mux.HandleFunc("POST /v1/community/posts/{id}/like", communityHandler.HandleLike)
	s.mux.HandleFunc("DELETE /v1/community/posts/{id}/like", communityHandler.HandleUnlike)

	// Reports API
	generator := reports.NewGenerator(s.storage.NutritionGoals(), s.storage.NutritionLogs(), s.storage.Workouts())
	reportService := reports.NewService(generator, s.blobStore, s.config.ReportsMaxRangeDays, s.metrics)
	reportHandler := reports.NewHandlers(reportService)

	s.mux.HandleFunc("POST /v1/reports", reportHandler.HandleCreate)

	// Admin API
	adminService := admin.NewService(s.storage.Users(), s.storage.Workouts(), s.storage.Community(), notificationService)
	adminHandler := admin.NewHandler(adminService)

	s.mux.Handle("GET /v1/admin/users", s.authMiddleware.RequireAdmin(http.HandlerFunc(adminHandler.HandleListUsers)))
	s.mux.Handle("PATCH /v1/admin/users/{id}/role", s.authMiddleware.RequireAdmin(http.HandlerFunc(adminHandler.HandleUpdateRole)))
	s.mux.Handle("GET /v1/admin/stats", s.authMiddleware.RequireAdmin(http.HandlerFunc(adminHandler.HandleStats)))
}

// Handler returns the router wrapped in the middleware chain.
// Outermost first: panic recovery, metrics, CORS, rate limit, auth.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = s.authMiddleware.RequireAuth(handler)
	handler = RateLimit(s.config, s.metrics)(handler)
	handler = CORS(s.config)(handler)
	handler = RequestMetrics(s.metrics)(handler)
	handler = PanicRecovery(s.metrics)(handler)
	return handler
}

// Sweeper returns the maintenance reminder job. cmd/api runs it.
func (s *Server) Sweeper() *equipment.Sweeper {
	return s.sweeper
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Start запускает HTTP сервер и блокируется до Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Infof("server listening on http://localhost%s", addr)
	log.Infof("health check: http://localhost%s/healthz", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
// Open notification streams end when ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}

func deliveryFor(blobMode string) string {
	if blobMode == config.BlobModeS3 {
		return "archive to object storage"
	}
	return "stream to client"
}
