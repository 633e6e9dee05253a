package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"floreria/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	MigrationsCollection     = "migrations"
	DeliveryQuotesCollection = "delivery_quotes"
)

type Migration struct {
	Version     int
	Description string
	Up          func(context.Context, *mongo.Database) error
	Down        func(context.Context, *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	log        *logger.Logger
	migrations []Migration
}

// NewMigrator prepares the schema migrations. Delivery quotes are kept for
// quoteRetention after they expire.
func NewMigrator(db *mongo.Database, log *logger.Logger, quoteRetention time.Duration) *Migrator {
	return &Migrator{
		db:         db,
		log:        log,
		migrations: getMigrations(quoteRetention),
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.log.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}

		m.log.WithField("version", migration.Version).Infof("Reverting migration: %s", migration.Description)

		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 && m.migrations[i-1].Version > targetVersion {
			previousVersion = m.migrations[i-1].Version
		}
		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(MigrationsCollection).FindOne(ctx, bson.M{}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := m.db.Collection(MigrationsCollection).ReplaceOne(
		ctx,
		bson.M{},
		bson.M{"version": version, "updated_at": time.Now()},
		options.Replace().SetUpsert(true),
	)

	return err
}

func getMigrations(quoteRetention time.Duration) []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create delivery_quotes collection with indexes",
			Up:          createDeliveryQuoteIndexes,
			Down: func(ctx context.Context, db *mongo.Database) error {
				return db.Collection(DeliveryQuotesCollection).Drop(ctx)
			},
		},
		{
			Version:     2,
			Description: "Expire delivery quotes after the retention period",
			Up: func(ctx context.Context, db *mongo.Database) error {
				return createDeliveryQuoteTTLIndex(ctx, db, quoteRetention)
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				_, err := db.Collection(DeliveryQuotesCollection).Indexes().DropOne(ctx, "expires_at_ttl")
				return err
			},
		},
	}
}

func createDeliveryQuoteIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(DeliveryQuotesCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "order_id", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "commune", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "zone_id", Value: 1}, {Key: "delivery_date", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createDeliveryQuoteTTLIndex(ctx context.Context, db *mongo.Database, retention time.Duration) error {
	_, err := db.Collection(DeliveryQuotesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().
			SetName("expires_at_ttl").
			SetExpireAfterSeconds(int32(retention.Seconds())),
	})
	return err
}
