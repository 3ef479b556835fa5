// Package bootstrap builds the infrastructure shared by the api and worker
// binaries from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kethan23/build-buddy-app-766-sub000/config"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository/memory"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository/postgres"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/blob"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/messaging"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/messaging/kafka"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/messaging/redis"
)

func NewLogger(cfg config.LogConfig) *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       strings.EqualFold(cfg.Format, "json"),
	})
}

// Storage holds one implementation of every repository. DB is nil for the
// memory driver.
type Storage struct {
	DB            *sqlx.DB
	Countries     repository.CountryRequirementRepository
	Applications  repository.ApplicationRepository
	Documents     repository.DocumentRepository
	Bookings      repository.BookingRepository
	Outbox        repository.OutboxRepository
	Audit         repository.AuditRepository
	Notifications repository.NotificationRepository
}

// OpenStorage connects the configured driver. With migrate set, pending
// postgres migrations are applied before returning.
func OpenStorage(cfg config.DatabaseConfig, migrate bool, log *logger.Logger) (*Storage, error) {
	if strings.EqualFold(cfg.Driver, "memory") {
		log.Warn("using in-memory storage; data is lost on exit")
		store := memory.NewStore()
		return &Storage{
			Countries:     store.Countries(),
			Applications:  store.Applications(),
			Documents:     store.Documents(),
			Bookings:      store.Bookings(),
			Outbox:        store.Outbox(),
			Audit:         store.Audit(),
			Notifications: store.Notifications(),
		}, nil
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		return nil, err
	}
	if migrate {
		version, err := postgres.MigrateUp(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("database migrated", "version", version)
	}

	base := postgres.NewBaseRepository(db)
	return &Storage{
		DB:            db,
		Countries:     postgres.NewCountryRequirementRepository(base),
		Applications:  postgres.NewApplicationRepository(base),
		Documents:     postgres.NewDocumentRepository(base),
		Bookings:      postgres.NewBookingRepository(base),
		Outbox:        postgres.NewOutboxRepository(base),
		Audit:         postgres.NewAuditRepository(base),
		Notifications: postgres.NewNotificationRepository(base),
	}, nil
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// OpenBroker returns the configured transport. The none driver yields an
// in-process broker, so publishers and subscribers must share the process.
func OpenBroker(ctx context.Context, cfg *config.Config, log *logger.Logger) (messaging.Broker, error) {
	switch strings.ToLower(cfg.Broker.Driver) {
	case "redis":
		return redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig(), log)
	case "kafka":
		return kafka.NewKafkaBroker(cfg.Kafka.ToBrokerConfig(), log)
	case "none":
		return messaging.NewInMemoryBroker(cfg.Notification.BufferSize), nil
	default:
		return nil, fmt.Errorf("unsupported broker driver %q", cfg.Broker.Driver)
	}
}

// IsInProcess reports whether the broker only reaches subscribers in the
// same process.
func IsInProcess(cfg *config.Config) bool {
	return strings.EqualFold(cfg.Broker.Driver, "none")
}

func OpenBlobStore(ctx context.Context, cfg config.BlobConfig) (blob.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "s3":
		return blob.NewS3Store(ctx, blob.S3Config{
			Bucket:        cfg.Bucket,
			Region:        cfg.Region,
			Endpoint:      cfg.Endpoint,
			PublicBaseURL: cfg.PublicBaseURL,
			UsePathStyle:  cfg.UsePathStyle,
		})
	case "memory":
		return blob.NewMemoryStore(cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported blob driver %q", cfg.Driver)
	}
}
