package jobs

import (
	"context"
	"time"
)

// Имена задач.
const (
	ShiftCloseJob   = "shift-close"
	SessionSweepJob = "session-sweep"
)

// ShiftCloser закрывает прошедшие смены.
type ShiftCloser interface {
	CloseElapsed(ctx context.Context) (int64, error)
}

// SessionSweeper удаляет просроченные сессии.
type SessionSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// ShiftClose — задача автозакрытия смен.
func ShiftClose(schedule string, shifts ShiftCloser) Job {
	return Job{
		Name:     ShiftCloseJob,
		Schedule: schedule,
		Timeout:  2 * time.Minute,
		Task:     shifts.CloseElapsed,
	}
}

// SessionSweep — задача очистки сессий.
func SessionSweep(schedule string, sessions SessionSweeper) Job {
	return Job{
		Name:     SessionSweepJob,
		Schedule: schedule,
		Timeout:  30 * time.Second,
		Task: func(ctx context.Context) (int64, error) {
			n, err := sessions.Sweep(ctx)
			return int64(n), err
		},
	}
}
