// Command citetrack tracks citation metrics from scholar profiles.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tao-shen/CiteTrack-sub002/internal/adapters/driven/config/file"
	"github.com/tao-shen/CiteTrack-sub002/internal/adapters/driven/notify"
	"github.com/tao-shen/CiteTrack-sub002/internal/adapters/driven/scholar"
	filestore "github.com/tao-shen/CiteTrack-sub002/internal/adapters/driven/storage/file"
	"github.com/tao-shen/CiteTrack-sub002/internal/adapters/driven/storage/memory"
	"github.com/tao-shen/CiteTrack-sub002/internal/adapters/driven/storage/sqlite"
	"github.com/tao-shen/CiteTrack-sub002/internal/adapters/driving/cli"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driven"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/services"
	"github.com/tao-shen/CiteTrack-sub002/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

// persistTimeout bounds the final cache write on exit.
const persistTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ephemeral := os.Getenv("CITETRACK_EPHEMERAL") == "1"

	var configStore driven.ConfigStore
	if ephemeral {
		configStore = memory.NewConfigStore()
	} else {
		store, err := file.NewConfigStore(os.Getenv("CITETRACK_HOME"))
		if err != nil {
			return fmt.Errorf("opening config: %w", err)
		}
		configStore = store
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if ephemeral {
		settings.Cache.Backend = domain.CacheBackendMemory
	}

	storage, err := openStorage(settings.Cache)
	if err != nil {
		return err
	}
	defer storage.close()

	cacheManager := services.NewCacheManager(storage.blobs, settings.Cache.TTL, settings.Cache.HistoryLimit)
	defer cacheManager.Close()
	if err := cacheManager.Load(ctx); err != nil {
		// A corrupt blob is not fatal; the cache starts empty.
		logger.Warn("ignoring persisted cache: %v", err)
	}
	defer func() {
		persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := cacheManager.Persist(persistCtx); err != nil {
			logger.Error("failed to persist cache: %v", err)
		}
	}()

	if storage.watcher != nil {
		go watchCompanion(ctx, storage.watcher, cacheManager)
	}

	coordConfig := services.DefaultCoordinatorConfig()
	coordConfig.MinDelay = settings.Fetch.MinDelay
	coordConfig.MaxDelay = settings.Fetch.MaxDelay
	coordConfig.PagesPerSort = settings.Fetch.PagesPerSort
	coordConfig.PublicationsPageSize = scholar.PublicationsPageSize

	client := scholar.NewClient(settings.Fetch)
	coord := services.NewCoordinator(client, cacheManager, coordConfig)
	defer coord.Close()

	notifier, err := notify.New(settings.Notifications, os.Stdout)
	if err != nil {
		// Fall back to the console so citation checks still report.
		logger.Warn("notifications: %v, using console", err)
		notifier = notify.NewConsoleNotifier(os.Stdout)
	}
	watcher := services.NewCitationWatcher(cacheManager, coord, notifier, settingsService.NotificationsEnabled)
	defer watcher.Close()

	updater := services.NewUpdater(coord, settingsService.TrackedScholars)
	scheduler := services.NewScheduler(settings.SchedulerConfig(), storage.scheduler, updater, cacheManager)
	defer func() { _ = scheduler.Stop() }()

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Cache:       cacheManager,
		Coordinator: coord,
		Settings:    settingsService,
		Updater:     updater,
		Scheduler:   scheduler,
	})

	return cli.Execute(ctx)
}

// storageSet is the persistence selected by the cache backend.
type storageSet struct {
	blobs     driven.BlobStore
	scheduler driven.SchedulerStore
	watcher   driven.BlobWatcher
	close     func()
}

func openStorage(cfg domain.CacheSettings) (*storageSet, error) {
	if cfg.Backend == domain.CacheBackendMemory {
		return &storageSet{
			blobs:     memory.NewBlobStore(),
			scheduler: memory.NewSchedulerStore(),
			close:     func() {},
		}, nil
	}

	db, err := sqlite.NewStore(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	set := &storageSet{
		blobs:     db.BlobStore(),
		scheduler: db.SchedulerStore(),
		close: func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close database: %v", err)
			}
		},
	}

	if cfg.Backend == domain.CacheBackendFile {
		blobs, err := filestore.NewBlobStore(cfg.Dir)
		if err != nil {
			set.close()
			return nil, fmt.Errorf("opening cache directory: %w", err)
		}
		set.blobs = blobs
		set.watcher = blobs
	}

	return set, nil
}

// watchCompanion reloads the cache when another process rewrites it.
func watchCompanion(ctx context.Context, watcher driven.BlobWatcher, cache *services.CacheManager) {
	err := watcher.Watch(ctx, services.CacheBlobKey, func() {
		logger.Debug("cache changed on disk, reloading")
		if err := cache.Load(ctx); err != nil {
			logger.Warn("failed to reload cache: %v", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("cache watch stopped: %v", err)
	}
}
