package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
)

// GetTranslations returns the cached translations for texts into language.
func (s *Store) GetTranslations(ctx context.Context, language string, texts []string) (map[string]string, error) {
	out := make(map[string]string)
	err := s.lookup(ctx,
		`SELECT source_text, translated_text FROM translation_cache WHERE target_language = ? AND source_text IN (%s)`,
		language, texts,
		func(rows *sql.Rows) error {
			var source, translated string
			if err := rows.Scan(&source, &translated); err != nil {
				return err
			}
			out[source] = translated
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("get translations: %w", err)
	}
	return out, nil
}

// PutTranslations upserts translations into language.
func (s *Store) PutTranslations(ctx context.Context, language string, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	now := formatTime(s.now())
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO translation_cache (target_language, source_text, translated_text, updated_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(target_language, source_text) DO UPDATE SET
			   translated_text = excluded.translated_text,
			   updated_at = excluded.updated_at`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, source := range slices.Sorted(maps.Keys(entries)) {
			if _, err := stmt.ExecContext(ctx, language, source, entries[source], now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put translations: %w", err)
	}
	return nil
}

// GetAudioClips returns the cached audio for texts spoken in language.
func (s *Store) GetAudioClips(ctx context.Context, language string, texts []string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	err := s.lookup(ctx,
		`SELECT source_text, audio_clip FROM speech_synthesis_cache WHERE language = ? AND source_text IN (%s)`,
		language, texts,
		func(rows *sql.Rows) error {
			var source string
			var clip []byte
			if err := rows.Scan(&source, &clip); err != nil {
				return err
			}
			out[source] = clip
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("get audio clips: %w", err)
	}
	return out, nil
}

// PutAudioClips upserts synthesized audio for language.
func (s *Store) PutAudioClips(ctx context.Context, language string, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	now := formatTime(s.now())
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO speech_synthesis_cache (language, source_text, audio_clip, updated_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(language, source_text) DO UPDATE SET
			   audio_clip = excluded.audio_clip,
			   updated_at = excluded.updated_at`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, source := range slices.Sorted(maps.Keys(entries)) {
			if _, err := stmt.ExecContext(ctx, language, source, entries[source], now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put audio clips: %w", err)
	}
	return nil
}

// lookup runs queryTemplate once per chunk of texts. The template takes the
// language as its first parameter and a %s slot for the IN placeholders.
func (s *Store) lookup(ctx context.Context, queryTemplate, language string, texts []string, scan func(*sql.Rows) error) error {
	for _, batch := range chunk(uniqueStrings(texts), maxInParams) {
		args := make([]any, 0, len(batch)+1)
		args = append(args, language)
		for _, text := range batch {
			args = append(args, text)
		}
		if err := s.scanRows(ctx, fmt.Sprintf(queryTemplate, makePlaceholders(len(batch))), args, scan); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) scanRows(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
