package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neodaoist/v3/auction"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresEventStore implements EventStore with PostgreSQL persistence.
type PostgresEventStore struct {
	db *sql.DB
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// NewPostgresEventStore creates a new PostgreSQL-backed event store.
func NewPostgresEventStore(config *PostgresConfig) (*PostgresEventStore, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresEventStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresEventStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS auction_events (
		id UUID PRIMARY KEY,
		event_type VARCHAR(32) NOT NULL,
		collection VARCHAR(256) NOT NULL,
		actor VARCHAR(256) NOT NULL,
		amount NUMERIC(20, 0) NOT NULL,
		occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
		auction JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_auction_events_collection ON auction_events(collection, created_at);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Append persists an emitted record.
func (s *PostgresEventStore) Append(ctx context.Context, ev auction.Event) error {
	snapshot, err := json.Marshal(ev.Auction)
	if err != nil {
		return fmt.Errorf("encoding auction snapshot: %w", err)
	}

	query := `
	INSERT INTO auction_events (id, event_type, collection, actor, amount, occurred_at, auction)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.db.ExecContext(ctx, query,
		ev.ID.String(),
		string(ev.Type),
		string(ev.Collection),
		string(ev.Actor),
		fmt.Sprintf("%d", ev.Amount),
		ev.Timestamp,
		snapshot,
	)
	return err
}

// ListByCollection returns all persisted records for a collection in append order.
func (s *PostgresEventStore) ListByCollection(ctx context.Context, collection auction.Collection) ([]auction.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, collection, actor, amount, occurred_at, auction
		FROM auction_events
		WHERE collection = $1
		ORDER BY created_at ASC
	`, string(collection))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auction.Event
	for rows.Next() {
		var (
			id         string
			eventType  string
			coll       string
			actor      string
			amount     uint64
			occurredAt time.Time
			snapshot   []byte
		)

		if err := rows.Scan(&id, &eventType, &coll, &actor, &amount, &occurredAt, &snapshot); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		eventID, err := uuid.Parse(id)
		if err != nil {
			continue
		}

		ev := auction.Event{
			ID:         eventID,
			Type:       auction.EventType(eventType),
			Collection: auction.Collection(coll),
			Actor:      auction.Account(actor),
			Amount:     amount,
			Timestamp:  occurredAt,
		}
		if err := json.Unmarshal(snapshot, &ev.Auction); err != nil {
			return nil, fmt.Errorf("decoding auction snapshot: %w", err)
		}

		result = append(result, ev)
	}

	return result, rows.Err()
}

// Close closes the database connection.
func (s *PostgresEventStore) Close() error {
	return s.db.Close()
}
