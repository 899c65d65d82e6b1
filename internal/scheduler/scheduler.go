// Package scheduler запускает периодические задачи (gocron v2) по расписаниям из конфигурации.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"mycase/internal/config"
)

// Scheduler управляет задачами через gocron.
type Scheduler struct {
	scheduler gocron.Scheduler
	log       *zap.Logger
	cfg       config.SchedulerConfig
	tasks     map[string]TaskFunc
	mu        sync.Mutex
	running   bool
}

func New(log *zap.Logger, cfg config.SchedulerConfig, tasks map[string]TaskFunc) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "scheduler"))

	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.Local),
		gocron.WithLogger(gocronLogger{log: log.Sugar()}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, log: log, cfg: cfg, tasks: tasks}, nil
}

// Start регистрирует включенные задачи и запускает планировщик.
// Задача с ошибкой в расписании пропускается, остальные работают.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler is already running")
	}

	scheduled := 0
	for name, task := range s.cfg.Tasks {
		if !task.Enabled {
			s.log.Info("skipping disabled task", zap.String("task", name))
			continue
		}
		fn, ok := s.tasks[name]
		if !ok {
			s.log.Warn("task configured but not registered", zap.String("task", name))
			continue
		}

		_, err := s.scheduler.NewJob(
			gocron.CronJob(task.Schedule, false),
			gocron.NewTask(s.wrap(name, fn)),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			s.log.Error("failed to schedule task",
				zap.String("task", name),
				zap.String("schedule", task.Schedule),
				zap.Error(err))
			continue
		}
		s.log.Info("task scheduled", zap.String("task", name), zap.String("schedule", task.Schedule))
		scheduled++
	}

	s.scheduler.Start()
	s.running = true
	s.log.Info("scheduler started", zap.Int("tasks_scheduled", scheduled))
	return nil
}

func (s *Scheduler) wrap(name string, fn TaskFunc) func() {
	return func() {
		start := time.Now()
		if err := fn(context.Background()); err != nil {
			s.log.Error("scheduled task failed", zap.String("task", name), zap.Error(err))
			return
		}
		s.log.Info("scheduled task finished", zap.String("task", name), zap.Duration("duration", time.Since(start)))
	}
}

// Stop останавливает планировщик и ждет текущие задачи.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	s.log.Info("scheduler stopped")
	return nil
}

// Run запускает планировщик и останавливает его при отмене ctx.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// JobNames - имена зарегистрированных задач.
func (s *Scheduler) JobNames() []string {
	jobs := s.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

// gocronLogger передает логи gocron в zap.
type gocronLogger struct {
	log *zap.SugaredLogger
}

func (l gocronLogger) Debug(msg string, args ...any) { l.log.Debugw(msg, args...) }
func (l gocronLogger) Info(msg string, args ...any)  { l.log.Infow(msg, args...) }
func (l gocronLogger) Warn(msg string, args ...any)  { l.log.Warnw(msg, args...) }
func (l gocronLogger) Error(msg string, args ...any) { l.log.Errorw(msg, args...) }
