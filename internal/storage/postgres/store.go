package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nablaScope/internal/model"
)

// Schema creates the tables used by the indexer.
const Schema = `
CREATE TABLE IF NOT EXISTS components (
	component_id      TEXT PRIMARY KEY,
	kind              TEXT NOT NULL,
	tokens            TEXT[] NOT NULL DEFAULT '{}',
	static_attributes JSONB NOT NULL DEFAULT '[]',
	created_tx        TEXT NOT NULL DEFAULT '',
	created_block     BIGINT NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS entity_changes (
	block_number BIGINT NOT NULL,
	block_hash   TEXT NOT NULL,
	tx_hash      TEXT NOT NULL,
	tx_index     BIGINT NOT NULL,
	seq          INT NOT NULL,
	component_id TEXT NOT NULL,
	attributes   JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (block_number, tx_hash, seq)
);

CREATE INDEX IF NOT EXISTS entity_changes_component_idx ON entity_changes (component_id, block_number);

CREATE TABLE IF NOT EXISTS indexer_state (
	name                 TEXT PRIMARY KEY,
	last_processed_block BIGINT NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for components, entity changes and progress.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// InsertComponents stores components, keeping the first registration of an id.
func (s *Store) InsertComponents(ctx context.Context, components []model.Component) error {
	if len(components) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range components {
		staticAttributes, err := json.Marshal(nonNilAttributes(c.StaticAttributes))
		if err != nil {
			return fmt.Errorf("marshal static attributes %s: %w", c.ID, err)
		}
		tokens := c.Tokens
		if tokens == nil {
			tokens = []string{}
		}
		batch.Queue(`
			INSERT INTO components (
				component_id, kind, tokens, static_attributes, created_tx, created_block, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, now())
			ON CONFLICT (component_id) DO NOTHING
		`,
			c.ID,
			string(c.Kind),
			tokens,
			staticAttributes,
			c.CreatedTx,
			int64(c.CreatedBlock),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range components {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadComponents returns every registered component in registration order.
func (s *Store) LoadComponents(ctx context.Context) ([]model.Component, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT component_id, kind, tokens, static_attributes, created_tx, created_block
		FROM components
		ORDER BY created_block, component_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Component
	for rows.Next() {
		var (
			c                model.Component
			kind             string
			staticAttributes []byte
			createdBlock     int64
		)
		if err := rows.Scan(&c.ID, &kind, &c.Tokens, &staticAttributes, &c.CreatedTx, &createdBlock); err != nil {
			return nil, err
		}
		c.Kind, err = model.ParseComponentKind(kind)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", c.ID, err)
		}
		if len(staticAttributes) > 0 {
			if err := json.Unmarshal(staticAttributes, &c.StaticAttributes); err != nil {
				return nil, fmt.Errorf("component %s static attributes: %w", c.ID, err)
			}
		}
		c.CreatedBlock = uint64(createdBlock)
		out = append(out, c)
	}
	return out, rows.Err()
}

// PutBlockChanges replaces the stored entity changes of each block and
// registers the components they report. A block's previous rows are deleted
// first, so re-processing a block never leaves rows from an older output.
func (s *Store) PutBlockChanges(ctx context.Context, changes []model.BlockChanges) error {
	batch, components, err := entityChangesBatch(changes)
	if err != nil {
		return err
	}

	if err := s.InsertComponents(ctx, components); err != nil {
		return fmt.Errorf("insert components: %w", err)
	}
	if batch.Len() == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin entity changes: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// entityChangesBatch queues, per block, a delete of its rows followed by one
// insert per entity change. It also collects the reported components.
func entityChangesBatch(changes []model.BlockChanges) (*pgx.Batch, []model.Component, error) {
	var components []model.Component
	batch := &pgx.Batch{}
	for _, block := range changes {
		batch.Queue(`DELETE FROM entity_changes WHERE block_number = $1`, int64(block.BlockNumber))
		for _, tx := range block.Changes {
			components = append(components, tx.Components...)
			for seq, entity := range tx.EntityChanges {
				attributes, err := json.Marshal(nonNilAttributes(entity.Attributes))
				if err != nil {
					return nil, nil, fmt.Errorf("marshal attributes %s: %w", entity.ComponentID, err)
				}
				batch.Queue(`
					INSERT INTO entity_changes (
						block_number, block_hash, tx_hash, tx_index, seq, component_id, attributes, updated_at
					) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
				`,
					int64(block.BlockNumber),
					block.BlockHash,
					tx.TxHash,
					int64(tx.TxIndex),
					seq,
					entity.ComponentID,
					attributes,
				)
			}
		}
	}
	return batch, components, nil
}

// LoadState returns last_processed_block for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

// SaveState upserts last_processed_block for a name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, int64(block))
	return err
}

func nonNilAttributes(attributes []model.Attribute) []model.Attribute {
	if attributes == nil {
		return []model.Attribute{}
	}
	return attributes
}
