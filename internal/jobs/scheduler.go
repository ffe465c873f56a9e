// Пакет jobs — фоновые задачи по cron-расписанию.
//
// Задачи:
//  1. shift-close — закрывает смены, время окончания которых прошло
//  2. session-sweep — удаляет просроченные сессии из хранилища в памяти
//
// Каждая задача выполняется с таймаутом, параллельный запуск одной и той же
// задачи пропускается.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
)

const defaultJobTimeout = time.Minute

var (
	// jobRunsTotal — запуски задач по результату (ok, error, skipped).
	jobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "br_job_runs_total",
		Help: "Количество запусков фоновых задач",
	}, []string{"job", "result"})

	// jobDurationSeconds — длительность выполнения задачи.
	jobDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "br_job_duration_seconds",
		Help:    "Длительность выполнения фоновых задач в секундах",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"job"})
)

// ErrUnknownJob — задача с таким именем не зарегистрирована.
var ErrUnknownJob = errors.New("неизвестная задача")

// Task — тело задачи. Возвращает число затронутых записей.
type Task func(ctx context.Context) (int64, error)

// Job — задача с расписанием.
type Job struct {
	Name string
	// Schedule — cron-выражение из 5 полей или дескриптор (@every 5m, @hourly).
	Schedule string
	// Timeout — ограничение одного запуска (0 — defaultJobTimeout).
	Timeout time.Duration
	Task    Task
}

// RunResult — результат одного запуска задачи.
type RunResult struct {
	Job      string
	Affected int64
	Duration time.Duration
	Skipped  bool
	Err      error
}

// Scheduler — планировщик фоновых задач поверх robfig/cron.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	jobs    map[string]Job
	running map[string]bool
	started bool
}

// NewScheduler создаёт планировщик. Расписания считаются в location.
func NewScheduler(logger *slog.Logger, location *time.Location) *Scheduler {
	if location == nil {
		location = time.Local
	}
	logger = logger.With(slog.String("component", "jobs"))
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cronLogger{logger: logger}),
			cron.WithChain(cron.Recover(cronLogger{logger: logger})),
		),
		logger:  logger,
		jobs:    make(map[string]Job),
		running: make(map[string]bool),
	}
}

// Register добавляет задачу. Пустое расписание отключает задачу.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Task == nil {
		return errors.New("задача без имени или тела")
	}
	if job.Timeout <= 0 {
		job.Timeout = defaultJobTimeout
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("задача %s уже зарегистрирована", job.Name)
	}
	if job.Schedule == "" {
		s.logger.Info("Задача отключена", slog.String("job", job.Name))
		return nil
	}

	name := job.Name
	if _, err := s.cron.AddFunc(job.Schedule, func() { s.RunOnce(context.Background(), name) }); err != nil {
		return fmt.Errorf("некорректное расписание задачи %s (%q): %w", job.Name, job.Schedule, err)
	}
	s.jobs[job.Name] = job
	return nil
}

// Start запускает планировщик. Повторный вызов ничего не делает.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.logger.Info("Планировщик запущен", slog.Int("jobs", len(s.jobs)))
}

// Stop останавливает планировщик и ждёт завершения выполняющихся задач,
// но не дольше ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Планировщик остановлен")
	case <-ctx.Done():
		s.logger.Warn("Планировщик остановлен по таймауту, задачи ещё выполняются")
	}
}

// RunOnce выполняет зарегистрированную задачу немедленно.
// Если задача уже выполняется, запуск пропускается.
func (s *Scheduler) RunOnce(ctx context.Context, name string) *RunResult {
	s.mu.Lock()
	job, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return &RunResult{Job: name, Err: ErrUnknownJob}
	}
	if s.running[name] {
		s.mu.Unlock()
		jobRunsTotal.WithLabelValues(name, "skipped").Inc()
		s.logger.Warn("Задача ещё выполняется, запуск пропущен", slog.String("job", name))
		return &RunResult{Job: name, Skipped: true}
	}
	s.running[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, name)
		s.mu.Unlock()
	}()

	runCtx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	start := time.Now()
	affected, err := job.Task(runCtx)
	result := &RunResult{
		Job:      name,
		Affected: affected,
		Duration: time.Since(start),
		Err:      err,
	}
	jobDurationSeconds.WithLabelValues(name).Observe(result.Duration.Seconds())

	if err != nil {
		jobRunsTotal.WithLabelValues(name, "error").Inc()
		s.logger.Error("Ошибка выполнения задачи",
			slog.String("job", name),
			slog.String("error", err.Error()),
		)
		return result
	}

	jobRunsTotal.WithLabelValues(name, "ok").Inc()
	level := slog.LevelDebug
	if affected > 0 {
		level = slog.LevelInfo
	}
	s.logger.Log(ctx, level, "Задача выполнена",
		slog.String("job", name),
		slog.Int64("affected", affected),
		slog.String("duration", result.Duration.String()),
	)
	return result
}

// cronLogger — адаптер slog для cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, slog.String("error", err.Error()))...)
}
