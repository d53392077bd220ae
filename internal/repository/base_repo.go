package repository

import (
	"context"
	"time"

	"github.com/kereva-dev/duet/internal/config"
	"github.com/kereva-dev/duet/internal/entity"
	"github.com/mbeoliero/kit/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Repositories bundles every storage-facing repo plus the shared
// connections they run on
type Repositories struct {
	DB       *gorm.DB
	Redis    *redis.Client
	User     *UserRepo
	Room     *RoomRepo
	Message  *MessageRepo
	Activity *ActivityRepo
	Typing   *TypingRepo
}

// NewRepositories opens MySQL and Redis and migrates the schema
func NewRepositories(cfg *config.Config) (*Repositories, error) {
	db, err := initMySQL(cfg)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Room{},
		&entity.Message{},
		&entity.Activity{},
	); err != nil {
		return nil, err
	}

	rdb := initRedis(cfg)

	return &Repositories{
		DB:       db,
		Redis:    rdb,
		User:     NewUserRepo(db, rdb),
		Room:     NewRoomRepo(db, rdb),
		Message:  NewMessageRepo(db, rdb),
		Activity: NewActivityRepo(db),
		Typing:   NewTypingRepo(rdb),
	}, nil
}

func initMySQL(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// Close releases both connection pools
func (r *Repositories) Close() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	return r.Redis.Close()
}

// Transaction executes fn inside one database transaction
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}

// CheckConnection pings both stores, used at startup before serving
func (r *Repositories) CheckConnection(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		log.CtxError(ctx, "mysql ping failed: %v", err)
		return err
	}

	if err := r.Redis.Ping(ctx).Err(); err != nil {
		log.CtxError(ctx, "redis ping failed: %v", err)
		return err
	}

	return nil
}
