package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/skyfeed/pkg/domain"
)

// DefaultKeepSnapshots is the size of the snapshot history
const DefaultKeepSnapshots = 10

// ErrNotFound is returned when there is no snapshot yet
var ErrNotFound = errors.New("not found")

// snapshotRow is the snapshots table record
type snapshotRow struct {
	ID          int64     `db:"id"`
	RunID       string    `db:"run_id"`
	GeneratedAt time.Time `db:"generated_at"`
	TotalPosts  int       `db:"total_posts"`
	Document    string    `db:"document"`
	CreatedAt   time.Time `db:"created_at"`
}

// SnapshotRepository keeps the history of generated feed documents
type SnapshotRepository struct {
	db   *sqlx.DB
	keep int
}

// NewSnapshotRepository creates a snapshot repository keeping the last keep snapshots
func NewSnapshotRepository(db *sqlx.DB, keep int) *SnapshotRepository {
	if keep <= 0 {
		keep = DefaultKeepSnapshots
	}
	return &SnapshotRepository{db: db, keep: keep}
}

// Save stores the document of a run and trims the history in the same transaction
func (r *SnapshotRepository) Save(ctx context.Context, runID string, doc domain.FeedDocument) (*domain.Snapshot, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	var id int64
	err = withLockRetry(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("begin tx: %w", err)}
		}
		defer tx.Rollback() //nolint:errcheck // no-op after commit

		res, err := tx.ExecContext(ctx,
			"INSERT INTO snapshots (run_id, generated_at, total_posts, document) VALUES (?, ?, ?, ?)",
			runID, doc.GeneratedAt.UTC(), doc.TotalPosts, string(data))
		if err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("insert snapshot: %w", err)}
		}
		if id, err = res.LastInsertId(); err != nil {
			return &criticalError{err: fmt.Errorf("get insert id: %w", err)}
		}

		trim := "DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)"
		if _, err = tx.ExecContext(ctx, trim, r.keep); err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("trim snapshots: %w", err)}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return r.Get(ctx, id)
}

// Get retrieves a snapshot by id
func (r *SnapshotRepository) Get(ctx context.Context, id int64) (*domain.Snapshot, error) {
	var row snapshotRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM snapshots WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %d: %w", id, err)
	}
	return r.toDomain(row)
}

// Latest retrieves the most recent snapshot, ErrNotFound if there is none
func (r *SnapshotRepository) Latest(ctx context.Context) (*domain.Snapshot, error) {
	var row snapshotRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM snapshots ORDER BY id DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return r.toDomain(row)
}

// List returns up to limit snapshots, newest first
func (r *SnapshotRepository) List(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = r.keep
	}
	var rows []snapshotRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT * FROM snapshots ORDER BY id DESC LIMIT ?", limit); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	res := make([]domain.Snapshot, 0, len(rows))
	for _, row := range rows {
		snap, err := r.toDomain(row)
		if err != nil {
			return nil, err
		}
		res = append(res, *snap)
	}
	return res, nil
}

// Count returns the number of stored snapshots
func (r *SnapshotRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM snapshots"); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}

func (r *SnapshotRepository) toDomain(row snapshotRow) (*domain.Snapshot, error) {
	var doc domain.FeedDocument
	if err := json.Unmarshal([]byte(row.Document), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %d: %w", row.ID, err)
	}
	return &domain.Snapshot{ID: row.ID, RunID: row.RunID, Document: doc, CreatedAt: row.CreatedAt}, nil
}
