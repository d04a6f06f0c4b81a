package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pavelanni/classifier/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would get its own empty in-memory database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tests (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		imported_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS test_images (
		test_id INTEGER NOT NULL,
		image_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		src TEXT NOT NULL,
		PRIMARY KEY (test_id, image_id),
		FOREIGN KEY (test_id) REFERENCES tests(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS test_labels (
		test_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		label TEXT NOT NULL,
		PRIMARY KEY (test_id, label),
		FOREIGN KEY (test_id) REFERENCES tests(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS correct_answers (
		test_id INTEGER NOT NULL,
		image_id INTEGER NOT NULL,
		label TEXT NOT NULL,
		PRIMARY KEY (test_id, image_id),
		FOREIGN KEY (test_id) REFERENCES tests(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveTest inserts a test or replaces an existing test with the same id.
// A replaced test keeps its catalog position; a new one goes last.
func (s *Store) SaveTest(t model.Test) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var position int
	err = tx.QueryRow(`SELECT position FROM tests WHERE id = ?`, t.ID).Scan(&position)
	switch {
	case err == sql.ErrNoRows:
		if err := tx.QueryRow(`SELECT COALESCE(MAX(position), -1) + 1 FROM tests`).Scan(&position); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if _, err := tx.Exec(`DELETE FROM tests WHERE id = ?`, t.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO tests (id, name, position, imported_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Name, position, time.Now(),
	); err != nil {
		return err
	}
	for i, img := range t.Images {
		if _, err := tx.Exec(
			`INSERT INTO test_images (test_id, image_id, position, src) VALUES (?, ?, ?, ?)`,
			t.ID, img.ID, i, img.Src,
		); err != nil {
			return err
		}
	}
	for i, l := range t.Labels {
		if _, err := tx.Exec(
			`INSERT INTO test_labels (test_id, position, label) VALUES (?, ?, ?)`,
			t.ID, i, l,
		); err != nil {
			return err
		}
	}
	for imageID, l := range t.CorrectAnswers {
		if _, err := tx.Exec(
			`INSERT INTO correct_answers (test_id, image_id, label) VALUES (?, ?, ?)`,
			t.ID, imageID, l,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListTests returns the full catalog in catalog order.
func (s *Store) ListTests() ([]model.Test, error) {
	rows, err := s.db.Query(`SELECT id, name FROM tests ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	var tests []model.Test
	for rows.Next() {
		var t model.Test
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			rows.Close()
			return nil, err
		}
		tests = append(tests, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tests {
		if err := s.loadTestParts(&tests[i]); err != nil {
			return nil, fmt.Errorf("load test %d: %w", tests[i].ID, err)
		}
	}
	return tests, nil
}

// GetTest returns a test by ID, or nil if it does not exist.
func (s *Store) GetTest(id int) (*model.Test, error) {
	var t model.Test
	err := s.db.QueryRow(`SELECT id, name FROM tests WHERE id = ?`, id).Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadTestParts(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) loadTestParts(t *model.Test) error {
	rows, err := s.db.Query(
		`SELECT image_id, src FROM test_images WHERE test_id = ? ORDER BY position`, t.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.ID, &img.Src); err != nil {
			return err
		}
		t.Images = append(t.Images, img)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	labelRows, err := s.db.Query(
		`SELECT label FROM test_labels WHERE test_id = ? ORDER BY position`, t.ID,
	)
	if err != nil {
		return err
	}
	defer labelRows.Close()
	for labelRows.Next() {
		var l string
		if err := labelRows.Scan(&l); err != nil {
			return err
		}
		t.Labels = append(t.Labels, l)
	}
	if err := labelRows.Err(); err != nil {
		return err
	}

	answerRows, err := s.db.Query(
		`SELECT image_id, label FROM correct_answers WHERE test_id = ?`, t.ID,
	)
	if err != nil {
		return err
	}
	defer answerRows.Close()
	t.CorrectAnswers = make(map[int]string)
	for answerRows.Next() {
		var imageID int
		var l string
		if err := answerRows.Scan(&imageID, &l); err != nil {
			return err
		}
		t.CorrectAnswers[imageID] = l
	}
	return answerRows.Err()
}

// TestCount returns the number of tests in the catalog.
func (s *Store) TestCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tests`).Scan(&count)
	return count, err
}

// GetImportedFileHash returns the hash recorded for path, or "" if the file
// was never imported.
func (s *Store) GetImportedFileHash(path string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM imported_files WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// SetImportedFileHash records the hash of an imported file.
func (s *Store) SetImportedFileHash(path, hash string) error {
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT INTO imported_files (path, hash, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = ?, imported_at = ?`,
		path, hash, now, hash, now,
	)
	return err
}
