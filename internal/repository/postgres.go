package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rpattn/rulesync/internal/db"
	"github.com/rpattn/rulesync/internal/domain"
)

// PostgresRuleStore persists the published rule set in the rules table,
// one row per rule id with the canonical record as JSONB.
type PostgresRuleStore struct {
	conn *db.Connection
}

// NewPostgresRuleStore creates a rule store over conn.
func NewPostgresRuleStore(conn *db.Connection) *PostgresRuleStore {
	return &PostgresRuleStore{conn: conn}
}

// Replace swaps the stored rule set for records in one transaction.
func (s *PostgresRuleStore) Replace(ctx context.Context, records []domain.RuleRecord) error {
	return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM rules`); err != nil {
			return fmt.Errorf("failed to clear rules: %w", err)
		}

		batch := &pgx.Batch{}
		for _, record := range records {
			payload, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("failed to encode rule %s: %w", record.ID, err)
			}
			batch.Queue(
				`INSERT INTO rules (id, record, updated_at) VALUES ($1, $2, now())
				 ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record, updated_at = now()`,
				record.ID, payload,
			)
		}

		results := tx.SendBatch(ctx, batch)
		for range records {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to insert rule: %w", err)
			}
		}
		return results.Close()
	})
}

// PostgresFingerprintStore keeps content fingerprints in the
// fingerprints key/value table.
type PostgresFingerprintStore struct {
	conn *db.Connection
}

// NewPostgresFingerprintStore creates a fingerprint store over conn.
func NewPostgresFingerprintStore(conn *db.Connection) *PostgresFingerprintStore {
	return &PostgresFingerprintStore{conn: conn}
}

// Get returns the fingerprint stored under key.
func (s *PostgresFingerprintStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.conn.Pool.QueryRow(ctx, `SELECT value FROM fingerprints WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read fingerprint: %w", err)
	}
	return value, true, nil
}

// Put stores value unconditionally.
func (s *PostgresFingerprintStore) Put(ctx context.Context, key, value string) error {
	_, err := s.conn.Pool.Exec(ctx,
		`INSERT INTO fingerprints (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write fingerprint: %w", err)
	}
	return nil
}

// CompareAndPut stores value only while the stored value still equals
// previous. The row-level atomicity of the single statement is what
// protects overlapping runs.
func (s *PostgresFingerprintStore) CompareAndPut(ctx context.Context, key, previous, value string) (bool, error) {
	if previous == "" {
		tag, err := s.conn.Pool.Exec(ctx,
			`INSERT INTO fingerprints (key, value, updated_at) VALUES ($1, $2, now())
			 ON CONFLICT (key) DO NOTHING`,
			key, value,
		)
		if err != nil {
			return false, fmt.Errorf("failed to write fingerprint: %w", err)
		}
		return tag.RowsAffected() == 1, nil
	}

	tag, err := s.conn.Pool.Exec(ctx,
		`UPDATE fingerprints SET value = $2, updated_at = now() WHERE key = $1 AND value = $3`,
		key, value, previous,
	)
	if err != nil {
		return false, fmt.Errorf("failed to write fingerprint: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
