package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"ballotforge/internal/election"
	"ballotforge/internal/store"
)

// PutElection validates and upserts an election with its settings. Export
// metadata from earlier runs is kept.
func (s *Store) PutElection(ctx context.Context, e election.Election, settings election.Settings) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	electionData, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode election: %w", err)
	}
	settingsData, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = s.execWithRetry(ctx,
		`INSERT INTO elections (id, election_data, settings_data, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   election_data = excluded.election_data,
		   settings_data = excluded.settings_data,
		   updated_at = excluded.updated_at`,
		e.ID, string(electionData), string(settingsData), formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("upsert election: %w", err)
	}
	return nil
}

// GetElection loads an election and recomputes its ballot styles.
func (s *Store) GetElection(ctx context.Context, id string) (*election.Record, error) {
	var electionData, settingsData, exportData, updatedRaw string
	err := s.db.QueryRowContext(ctx,
		`SELECT election_data, settings_data, export_data, updated_at FROM elections WHERE id = ?`, id,
	).Scan(&electionData, &settingsData, &exportData, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get election: %w", err)
	}

	rec := &election.Record{}
	if err := json.Unmarshal([]byte(electionData), &rec.Election); err != nil {
		return nil, fmt.Errorf("decode election %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(settingsData), &rec.Settings); err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(exportData), &rec.Export); err != nil {
		return nil, fmt.Errorf("decode export metadata %s: %w", id, err)
	}
	updated, err := parseTime(updatedRaw)
	if err != nil {
		return nil, fmt.Errorf("election %s: parse updated_at %q: %w", id, updatedRaw, err)
	}
	rec.UpdatedAt = updated
	return store.Hydrate(rec), nil
}

// SetExportMetadata replaces the package export fields. The test deck URLs
// are owned by SetTestDecksURL and survive package re-exports.
func (s *Store) SetExportMetadata(ctx context.Context, id string, meta election.ExportMetadata) error {
	return s.updateExport(ctx, id, func(current *election.ExportMetadata) {
		decks, tally := current.TestDecksURL, current.TestDecksTallyURL
		*current = meta
		current.TestDecksURL, current.TestDecksTallyURL = decks, tally
	})
}

// SetTestDecksURL records the location of the latest test deck bundle and
// its expected tally.
func (s *Store) SetTestDecksURL(ctx context.Context, id string, decksURL, tallyURL string) error {
	return s.updateExport(ctx, id, func(current *election.ExportMetadata) {
		current.TestDecksURL = decksURL
		current.TestDecksTallyURL = tallyURL
	})
}

func (s *Store) updateExport(ctx context.Context, id string, mutate func(*election.ExportMetadata)) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exportData string
		err := tx.QueryRowContext(ctx, `SELECT export_data FROM elections WHERE id = ?`, id).Scan(&exportData)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", store.ErrElectionNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("read export metadata: %w", err)
		}
		var meta election.ExportMetadata
		if err := json.Unmarshal([]byte(exportData), &meta); err != nil {
			return fmt.Errorf("decode export metadata %s: %w", id, err)
		}
		mutate(&meta)
		encoded, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode export metadata: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE elections SET export_data = ?, updated_at = ? WHERE id = ?`,
			string(encoded), formatTime(s.now()), id,
		); err != nil {
			return fmt.Errorf("update export metadata: %w", err)
		}
		return nil
	})
}
