package storage

import (
	"database/sql"
	"errors"
	"time"
)

const cardColumns = `slug, profession, level, company, data_json, generated_at, updated_at`

// PutCard inserts or replaces the card stored under rec.Slug. A zero
// GeneratedAt is stamped with the current time.
func (s *Store) PutCard(rec CardRecord) error {
	now := time.Now()
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = now
	}
	_, err := s.db.Exec(`
		INSERT INTO cards (`+cardColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			profession   = excluded.profession,
			level        = excluded.level,
			company      = excluded.company,
			data_json    = excluded.data_json,
			generated_at = excluded.generated_at,
			updated_at   = excluded.updated_at`,
		rec.Slug, rec.Profession, rec.Level, rec.Company, rec.DataJSON,
		formatTime(rec.GeneratedAt), formatTime(now),
	)
	return err
}

func (s *Store) GetCard(slug string) (CardRecord, error) {
	rec, err := scanCard(s.db.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return CardRecord{}, ErrNotFound
	}
	return rec, err
}

// ListCards returns every stored card ordered by profession name.
func (s *Store) ListCards() ([]CardRecord, error) {
	rows, err := s.db.Query(`SELECT ` + cardColumns + ` FROM cards ORDER BY profession, slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CardRecord
	for rows.Next() {
		rec, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCard(slug string) error {
	res, err := s.db.Exec(`DELETE FROM cards WHERE slug = ?`, slug)
	if err != nil {
		return err
	}
	return expectOne(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(r scanner) (CardRecord, error) {
	var (
		rec                    CardRecord
		generatedAt, updatedAt string
		err                    error
	)
	if err = r.Scan(&rec.Slug, &rec.Profession, &rec.Level, &rec.Company, &rec.DataJSON, &generatedAt, &updatedAt); err != nil {
		return CardRecord{}, err
	}
	if rec.GeneratedAt, err = parseTime("generated_at", generatedAt); err != nil {
		return CardRecord{}, err
	}
	if rec.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return CardRecord{}, err
	}
	return rec, nil
}

// expectOne maps "no rows touched" to ErrNotFound.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
