package jobs

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/flowblade/flowcut"
)

type (
	Status string

	// Job is a request to render the media of a clip into a new file, e.g. a
	// proxy.
	Job struct {
		ID       uuid.UUID
		Clip     flowcut.ClipID
		Source   string
		Target   string
		Status   Status
		Progress float64
		Err      string
	}

	// Store keeps the status of jobs in a sqlite database, so that the status
	// can be read by others than the worker running the job.
	Store struct {
		db *sql.DB
	}
)

const (
	Queued  Status = "queued"
	Running Status = "running"
	Done    Status = "done"
	Failed  Status = "failed"
	Aborted Status = "aborted"
)

var ErrNoSuchJob = errors.New("no such job")

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	clip INTEGER NOT NULL,
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	status TEXT NOT NULL,
	progress REAL NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT '',
	abort BOOLEAN NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// OpenStore opens the job database at path, or an in-memory database if path
// is empty.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open job database: %w", err)
	}
	// one connection: an in-memory database exists per connection, and sqlite
	// serializes writers anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create job table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Add(j Job) error {
	_, err := s.db.Exec(`INSERT INTO jobs (id, clip, source, target, status) VALUES (?, ?, ?, ?, ?)`,
		j.ID.String(), int64(j.Clip), j.Source, j.Target, string(j.Status))
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", j.ID, err)
	}
	return nil
}

func (s *Store) SetStatus(id uuid.UUID, st Status, errMsg string) error {
	return s.update(id, `UPDATE jobs SET status = ?, error = ? WHERE id = ?`, string(st), errMsg, id.String())
}

func (s *Store) SetProgress(id uuid.UUID, progress float64) error {
	return s.update(id, `UPDATE jobs SET progress = ? WHERE id = ?`, progress, id.String())
}

// RequestAbort flags a job for abortion. The worker running it stops at its
// next progress report; a queued job is never started.
func (s *Store) RequestAbort(id uuid.UUID) error {
	return s.update(id, `UPDATE jobs SET abort = 1 WHERE id = ?`, id.String())
}

func (s *Store) AbortRequested(id uuid.UUID) (bool, error) {
	var abort bool
	err := s.db.QueryRow(`SELECT abort FROM jobs WHERE id = ?`, id.String()).Scan(&abort)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNoSuchJob
	}
	return abort, err
}

func (s *Store) Get(id uuid.UUID) (Job, error) {
	row := s.db.QueryRow(`SELECT id, clip, source, target, status, progress, error FROM jobs WHERE id = ?`, id.String())
	j, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNoSuchJob
	}
	return j, err
}

// List returns the jobs with the given status, or all jobs if st is empty.
func (s *Store) List(st Status) ([]Job, error) {
	query := `SELECT id, clip, source, target, status, progress, error FROM jobs`
	var args []any
	if st != "" {
		query += ` WHERE status = ?`
		args = append(args, string(st))
	}
	rows, err := s.db.Query(query+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []Job
	for rows.Next() {
		j, err := scan(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, j)
	}
	return ret, rows.Err()
}

func (s *Store) update(id uuid.UUID, query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoSuchJob
	}
	return nil
}

func scan(row interface{ Scan(...any) error }) (Job, error) {
	var j Job
	var id, status string
	var clip int64
	if err := row.Scan(&id, &clip, &j.Source, &j.Target, &status, &j.Progress, &j.Err); err != nil {
		return Job{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Job{}, fmt.Errorf("corrupt job id %q: %w", id, err)
	}
	j.ID, j.Clip, j.Status = parsed, flowcut.ClipID(clip), Status(status)
	return j, nil
}
