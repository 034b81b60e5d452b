// Package main - точка входа для фоновых процессов (Worker) Kudos Hub.
//
// Worker отвечает за периодические задачи:
// - Сверка начислений: кредитование завершённых активностей без записи в леджере
// - Пересчёт суммарных баллов профилей
// - Ежемесячное архивирование позиций лидерборда для трендов
//
// Worker является единственным писателем леджера: все начисления идут
// через цикл сверки, поэтому повторный запуск всегда безопасен.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kudos-hub/kudos-engagement-hub/config"
	"github.com/kudos-hub/kudos-engagement-hub/internal/application/command"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
	"github.com/kudos-hub/kudos-engagement-hub/internal/infrastructure/persistence/postgres"
	"github.com/kudos-hub/kudos-engagement-hub/internal/infrastructure/persistence/redis"
	"github.com/kudos-hub/kudos-engagement-hub/internal/infrastructure/scheduler"
	"github.com/kudos-hub/kudos-engagement-hub/internal/infrastructure/scheduler/jobs"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	// .env опционален: в контейнерах конфигурация приходит из окружения.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	log.Info().
		Str("env", string(cfg.App.Environment)).
		Str("version", cfg.App.Version).
		Bool("debug", cfg.App.Debug).
		Msg("starting Kudos Hub worker")

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info().Msg("connecting to database")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info().Msg("closing database connection")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info().Msg("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.MigrateOnStart {
		log.Info().Msg("checking database migrations")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Msg("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	ledgerRepo := postgres.NewLedgerRepository(dbConn)
	pointTypeRepo := postgres.NewPointTypeRepository(dbConn)
	completionRepo := postgres.NewCompletionRepository(dbConn)
	profileRepo := postgres.NewProfileRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var resolver ledger.PointTypeResolver = pointTypeRepo
	var leaderboardCache *redis.LeaderboardCache

	if !cfg.Redis.Disabled {
		log.Info().Str("addr", redisConfigFrom(cfg).Addr()).Msg("connecting to Redis")

		redisCache, err := redis.NewCache(redisConfigFrom(cfg))
		if err != nil {
			// Кеш не критичен: без Redis работаем напрямую с базой.
			log.Warn().Err(err).Msg("failed to connect to Redis, caching disabled")
		} else {
			defer redisCache.Close()
			resolver = redis.NewPointTypeCache(redisCache, pointTypeRepo)
			leaderboardCache = redis.NewLeaderboardCache(redisCache, leaderboardRepo)
			log.Info().Msg("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ ОБРАБОТЧИКОВ КОМАНД
	// ─────────────────────────────────────────────────────────────────────────
	recomputeHandler := command.NewRecomputeTotalHandler(ledgerRepo, profileRepo, log)
	reconcileUserHandler := command.NewReconcileUserHandler(
		completionRepo, resolver, ledgerRepo, profileRepo, recomputeHandler, log)
	reconcileAllHandler := command.NewReconcileAllHandler(completionRepo, reconcileUserHandler, log)
	archiveHandler := command.NewArchiveRankingHandler(leaderboardRepo, leaderboardRepo, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ПЛАНИРОВЩИК И ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(log)

	var invalidator jobs.CacheInvalidator
	if leaderboardCache != nil {
		invalidator = leaderboardCache
	}
	reconcileJob := jobs.NewReconcileAllJob(reconcileAllHandler, invalidator, log)
	archiveJob := jobs.NewArchiveRankingsJob(archiveHandler, log)

	if err := sched.Register(reconcileJob, scheduler.NewIntervalSchedule(cfg.Scheduler.ReconcileInterval)); err != nil {
		return fmt.Errorf("failed to register reconcile job: %w", err)
	}
	if err := sched.Register(archiveJob, scheduler.NewMonthlySchedule(cfg.Scheduler.ArchiveDay, cfg.Scheduler.ArchiveHour)); err != nil {
		return fmt.Errorf("failed to register archive job: %w", err)
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info().Msg("stopping scheduler")
			_ = sched.Stop()
		}()
	} else {
		log.Warn().Msg("scheduler is disabled, jobs can only be triggered manually")
	}

	if cfg.Scheduler.ReconcileOnStart {
		log.Info().Msg("running startup reconciliation")
		if _, err := sched.RunNow(ctx, reconcileJob.Name()); err != nil {
			log.Error().Err(err).Msg("startup reconciliation failed")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info().
		Dur("reconcile_interval", cfg.Scheduler.ReconcileInterval).
		Int("archive_day", cfg.Scheduler.ArchiveDay).
		Msg("Kudos Hub worker is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	cancel()

	log.Info().Msg("shutdown completed")
	return nil
}

// redisConfigFrom maps the application config onto the cache package config.
func redisConfigFrom(cfg *config.Config) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	return rc
}
