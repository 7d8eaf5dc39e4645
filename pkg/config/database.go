package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connections. Mongo is nil when MONGO_URI is unset.
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
	log      *zap.Logger
}

// InitDB opens the configured databases
func InitDB(cfg *Config, log *zap.Logger) (*DB, error) {
	db := &DB{log: log}

	postgresDB, err := initPostgres(cfg.PostgresConnStr, cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	db.Postgres = postgresDB
	log.Info("connected to PostgreSQL")

	if cfg.MongoURI == "" {
		log.Warn("MONGO_URI not set, challenge event log disabled")
		return db, nil
	}
	mongoClient, err := initMongo(cfg.MongoURI)
	if err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	db.Mongo = mongoClient
	log.Info("connected to MongoDB")

	return db, nil
}

func initPostgres(connStr string, quiet bool) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	if quiet {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}
	db, err := gorm.Open(postgres.Open(connStr), gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// Ping checks every open connection
func (db *DB) Ping(ctx context.Context) error {
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if db.Mongo != nil {
		if err := db.Mongo.Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
	}
	return nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Postgres != nil {
		if sqlDB, err := db.Postgres.DB(); err != nil {
			db.log.Error("get SQL DB from GORM", zap.Error(err))
		} else if err := sqlDB.Close(); err != nil {
			db.log.Error("close PostgreSQL", zap.Error(err))
		} else {
			db.log.Info("PostgreSQL connection closed")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.log.Error("close MongoDB", zap.Error(err))
		} else {
			db.log.Info("MongoDB connection closed")
		}
	}
}
