// Package storage provides SQLite-based persistence for player progression
// and finished session results.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/coop-arena/internal/multiplayer"
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Profile is a stored player with its skill levels.
type Profile struct {
	PlayerID  string
	Name      string
	Level     int
	Exp       int
	Gold      int
	Skills    map[string]int
	UpdatedAt time.Time
}

// SessionResult is the recorded outcome of a finished session.
type SessionResult struct {
	ID                int64
	SessionID         string
	Status            string // "completed" or "failed"
	SectionsCleared   int
	CompletedSections []string
	Players           []string
	Ticks             int64
	Duration          int // Duration in seconds
	CreatedAt         time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// One writer; the coordinator saves from several goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS profiles (
			player_id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			level INTEGER NOT NULL DEFAULT 1,
			exp INTEGER NOT NULL DEFAULT 0,
			gold INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS player_skills (
			player_id TEXT NOT NULL REFERENCES profiles(player_id) ON DELETE CASCADE,
			skill_id TEXT NOT NULL,
			level INTEGER NOT NULL,
			PRIMARY KEY (player_id, skill_id)
		);

		CREATE TABLE IF NOT EXISTS session_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL,
			sections_cleared INTEGER NOT NULL DEFAULT 0,
			completed_sections TEXT NOT NULL DEFAULT '',
			players TEXT NOT NULL DEFAULT '',
			ticks INTEGER NOT NULL DEFAULT 0,
			duration_secs INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_session_results_status ON session_results(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// parseTime handles both time.Time and string datetimes returned by the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// SaveProfileRecord inserts or replaces a player's profile and skill levels.
func (s *Store) SaveProfileRecord(p Profile) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.Exec(
		`INSERT INTO profiles (player_id, name, level, exp, gold, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(player_id) DO UPDATE SET
		   name = excluded.name,
		   level = excluded.level,
		   exp = excluded.exp,
		   gold = excluded.gold,
		   updated_at = CURRENT_TIMESTAMP`,
		p.PlayerID, p.Name, p.Level, p.Exp, p.Gold,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save profile: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM player_skills WHERE player_id = ?", p.PlayerID); err != nil {
		return fmt.Errorf("storage: cannot clear skills: %w", err)
	}
	for id, level := range p.Skills {
		if level <= 0 {
			continue
		}
		if _, err := tx.Exec(
			"INSERT INTO player_skills (player_id, skill_id, level) VALUES (?, ?, ?)",
			p.PlayerID, id, level,
		); err != nil {
			return fmt.Errorf("storage: cannot save skill %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit profile: %w", err)
	}
	return nil
}

// ProfileByID retrieves a player's profile. Returns nil if it does not exist.
func (s *Store) ProfileByID(playerID string) (*Profile, error) {
	p := Profile{Skills: make(map[string]int)}
	var updatedAt any

	err := s.db.QueryRow(
		`SELECT player_id, name, level, exp, gold, updated_at
		 FROM profiles
		 WHERE player_id = ?`,
		playerID,
	).Scan(&p.PlayerID, &p.Name, &p.Level, &p.Exp, &p.Gold, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query profile: %w", err)
	}
	p.UpdatedAt = parseTime(updatedAt)

	rows, err := s.db.Query(
		"SELECT skill_id, level FROM player_skills WHERE player_id = ?",
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var level int
		if err := rows.Scan(&id, &level); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		p.Skills[id] = level
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return &p, nil
}

// TopProfiles retrieves the highest-level players.
func (s *Store) TopProfiles(limit int) ([]Profile, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT player_id, name, level, exp, gold, updated_at
		 FROM profiles
		 ORDER BY level DESC, exp DESC, player_id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query profiles: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var p Profile
		var updatedAt any
		if err := rows.Scan(&p.PlayerID, &p.Name, &p.Level, &p.Exp, &p.Gold, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		p.UpdatedAt = parseTime(updatedAt)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return out, nil
}

// LoadProfile implements multiplayer.ProfileStore.
func (s *Store) LoadProfile(playerID string) (multiplayer.ProfileData, bool, error) {
	p, err := s.ProfileByID(playerID)
	if err != nil || p == nil {
		return multiplayer.ProfileData{}, false, err
	}
	return multiplayer.ProfileData{
		PlayerID: p.PlayerID,
		Name:     p.Name,
		Level:    p.Level,
		Exp:      p.Exp,
		Gold:     p.Gold,
		Skills:   p.Skills,
	}, true, nil
}

// SaveProfile implements multiplayer.ProfileStore.
func (s *Store) SaveProfile(data multiplayer.ProfileData) error {
	return s.SaveProfileRecord(Profile{
		PlayerID: data.PlayerID,
		Name:     data.Name,
		Level:    data.Level,
		Exp:      data.Exp,
		Gold:     data.Gold,
		Skills:   data.Skills,
	})
}

// SaveResult records the outcome of a finished session.
// Returns the ID of the inserted record.
func (s *Store) SaveResult(result SessionResult) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO session_results
		 (session_id, status, sections_cleared, completed_sections, players, ticks, duration_secs)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.SessionID,
		result.Status,
		result.SectionsCleared,
		strings.Join(result.CompletedSections, ","),
		strings.Join(result.Players, ","),
		result.Ticks,
		result.Duration,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save session result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

const resultColumns = `id, session_id, status, sections_cleared, completed_sections,
	players, ticks, duration_secs, created_at`

func scanResult(row interface{ Scan(...any) error }) (SessionResult, error) {
	var r SessionResult
	var sections, players string
	var createdAt any
	err := row.Scan(
		&r.ID,
		&r.SessionID,
		&r.Status,
		&r.SectionsCleared,
		&sections,
		&players,
		&r.Ticks,
		&r.Duration,
		&createdAt,
	)
	if err != nil {
		return SessionResult{}, err
	}
	r.CompletedSections = splitList(sections)
	r.Players = splitList(players)
	r.CreatedAt = parseTime(createdAt)
	return r, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// ResultBySessionID retrieves a session result. Returns nil if none was saved.
func (s *Store) ResultBySessionID(sessionID string) (*SessionResult, error) {
	r, err := scanResult(s.db.QueryRow(
		"SELECT "+resultColumns+" FROM session_results WHERE session_id = ?",
		sessionID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query session result: %w", err)
	}
	return &r, nil
}

// RecentResults retrieves the most recent session results.
func (s *Store) RecentResults(limit int) ([]SessionResult, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryResults(
		"SELECT "+resultColumns+" FROM session_results ORDER BY created_at DESC, id DESC LIMIT ?",
		limit,
	)
}

// PlayerResults retrieves the results of sessions a player took part in.
func (s *Store) PlayerResults(playerID string, limit int) ([]SessionResult, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryResults(
		"SELECT "+resultColumns+` FROM session_results
		 WHERE ',' || players || ',' LIKE '%,' || ? || ',%'
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		playerID, limit,
	)
}

func (s *Store) queryResults(query string, args ...any) ([]SessionResult, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query session results: %w", err)
	}
	defer rows.Close()

	var results []SessionResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

// SaveSessionResult implements multiplayer.ResultSaver.
// This adapter allows the coordinator to save results without direct storage dependency.
func (s *Store) SaveSessionResult(data multiplayer.SessionResultData) error {
	_, err := s.SaveResult(SessionResult{
		SessionID:         data.SessionID,
		Status:            data.Status,
		SectionsCleared:   data.SectionsCleared,
		CompletedSections: data.CompletedSections,
		Players:           data.Players,
		Ticks:             int64(data.Ticks), //nolint:gosec // tick counts stay far below MaxInt64
		Duration:          data.DurationSecs,
	})
	return err
}

// Ensure Store implements the coordinator's persistence interfaces
var (
	_ multiplayer.ProfileStore = (*Store)(nil)
	_ multiplayer.ResultSaver  = (*Store)(nil)
)

// ResultStats contains aggregated statistics over finished sessions.
type ResultStats struct {
	Sessions    int
	Completed   int
	Failed      int
	AvgSections float64
	LastPlayed  time.Time
}

// GetResultStats retrieves aggregated statistics over all saved results.
func (s *Store) GetResultStats() (*ResultStats, error) {
	stats := &ResultStats{}
	var lastPlayed any

	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
		        COALESCE(AVG(sections_cleared), 0),
		        MAX(created_at)
		 FROM session_results`,
	).Scan(&stats.Sessions, &stats.Completed, &stats.Failed, &stats.AvgSections, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get result stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)

	return stats, nil
}
