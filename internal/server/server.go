// Пакет server — HTTP-сервер с маршрутами API и graceful shutdown.
// Без TLS: TLS termination на балансировщике.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/brigadas/internal/api/handlers"
	"github.com/bigkaa/brigadas/internal/config"
)

const (
	readTimeout  = 15 * time.Second
	writeTimeout = 30 * time.Second
	idleTimeout  = 60 * time.Second
)

// Server — HTTP-сервер приложения.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт сервер с маршрутами.
// middlewares применяются ко всем маршрутам в порядке переданного среза,
// auth — только к маршрутам, требующим сессии.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	h *handlers.APIHandler,
	auth func(http.Handler) http.Handler,
	middlewares ...func(http.Handler) http.Handler,
) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      NewRouter(h, auth, middlewares...),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		logger: logger.With(slog.String("component", "server")),
		cfg:    cfg,
	}
}

// NewRouter собирает chi-роутер. Вынесен отдельно для тестов.
func NewRouter(h *handlers.APIHandler, auth func(http.Handler) http.Handler, middlewares ...func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()
	for _, mw := range middlewares {
		router.Use(mw)
	}

	router.Get("/health/live", h.HealthLive)
	router.Get("/health/ready", h.HealthReady)
	router.Get("/metrics", h.GetMetrics)

	router.Route("/api/v1", func(r chi.Router) {
		// Публичные маршруты (контракт, форма входа и регистрация)
		r.Get("/openapi.yaml", h.GetOpenAPI)
		r.Get("/institutions", h.ListInstitutions)
		r.Get("/institutions/{id}/logo", h.GetLogo)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/register", h.Register)

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Post("/auth/logout", h.Logout)
			r.Get("/auth/me", h.Me)

			r.Get("/institution", h.GetInstitution)
			r.Put("/institution", h.UpdateInstitution)
			r.Put("/institution/logo", h.UploadLogo)
			r.Delete("/institution/logo", h.DeleteLogo)
			r.Delete("/institutions/{id}", h.DeleteInstitution)

			r.Get("/dashboard", h.GetDashboard)
			r.Get("/settings/message", h.GetMessageOfDay)
			r.Put("/settings/message", h.SetMessageOfDay)

			r.Route("/brigades", func(r chi.Router) {
				r.Get("/", h.ListBrigades)
				r.Post("/", h.CreateBrigade)
				r.Get("/{id}", h.GetBrigade)
				r.Put("/{id}", h.UpdateBrigade)
				r.Delete("/{id}", h.DeleteBrigade)
				r.Get("/{id}/members", h.ListBrigadeMembers)
				r.Put("/{id}/members/{userID}", h.AssignBrigadeMember)
				r.Put("/{id}/deputy", h.SetBrigadeDeputy)
			})

			r.Get("/people", h.ListPeople)
			r.Route("/users", func(r chi.Router) {
				r.Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.Put("/{id}", h.UpdateUser)
				r.Put("/{id}/password", h.ChangePassword)
				r.Delete("/{id}", h.DeleteUser)
			})

			r.Route("/activities", func(r chi.Router) {
				r.Get("/", h.ListActivities)
				r.Post("/", h.CreateActivity)
				r.Get("/{id}", h.GetActivity)
				r.Put("/{id}", h.UpdateActivity)
				r.Delete("/{id}", h.DeleteActivity)
			})

			r.Route("/shifts", func(r chi.Router) {
				r.Get("/", h.ListShifts)
				r.Get("/stats", h.ShiftStats)
				r.Post("/", h.CreateShift)
				r.Put("/{id}/status", h.SetShiftStatus)
				r.Delete("/{id}", h.DeleteShift)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/", h.ListReports)
				r.Get("/stats", h.ReportStats)
				r.Post("/", h.CreateReport)
				r.Put("/{id}/status", h.SetReportStatus)
				r.Delete("/{id}", h.DeleteReport)
			})

			r.Route("/indicators", func(r chi.Router) {
				r.Get("/", h.ListIndicators)
				r.Get("/summary", h.IndicatorSummary)
				r.Post("/", h.CreateIndicator)
				r.Get("/{id}", h.GetIndicator)
				r.Put("/{id}", h.UpdateIndicator)
				r.Delete("/{id}", h.DeleteIndicator)
			})
		})
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
