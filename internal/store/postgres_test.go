package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
)

type beginnerFunc func(ctx context.Context) (pgx.Tx, error)

func (f beginnerFunc) Begin(ctx context.Context) (pgx.Tx, error) { return f(ctx) }

// stubRow scans vals into the destinations in order.
type stubRow struct {
	vals []any
	err  error
}

func (r *stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan: want %d destinations, got %d", len(r.vals), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.vals[i].(string)
		case **string:
			v := r.vals[i].(string)
			*p = &v
		case *[]byte:
			*p = []byte(r.vals[i].(string))
		case *bool:
			*p = r.vals[i].(bool)
		case *time.Time:
			*p = r.vals[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type stubTx struct {
	row       pgx.Row
	execErr   error
	commitErr error

	queries    []string
	execs      []string
	committed  bool
	rolledBack bool
}

func (t *stubTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }

func (t *stubTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *stubTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *stubTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *stubTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (t *stubTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (t *stubTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *stubTx) Conn() *pgx.Conn { return nil }

func (t *stubTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, strings.TrimSpace(sql))
	if t.execErr != nil {
		return pgconn.CommandTag{}, t.execErr
	}
	return pgconn.CommandTag{}, nil
}

func (t *stubTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query")
}

func (t *stubTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	t.queries = append(t.queries, sql)
	if t.row == nil {
		return &stubRow{err: errors.New("unexpected QueryRow")}
	}
	return t.row
}

const (
	pgDraftID = "0190b6a4-0000-7000-8000-0000000000d1"
	pgConvID  = "0190b6a4-0000-7000-8000-0000000000c1"
)

func draftRow() *stubRow {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	return &stubRow{vals: []any{
		pgDraftID, citizenA, pgConvID,
		`{"category_id":3,"description":"bache","latitude":-0.93,"longitude":-78.61,"origin":"chat"}`,
		true, now, now,
	}}
}

func storeWith(tx *stubTx) *PostgresStore {
	return &PostgresStore{begin: beginnerFunc(func(context.Context) (pgx.Tx, error) { return tx, nil })}
}

func TestPostgresWithDraftLockCommits(t *testing.T) {
	tx := &stubTx{row: draftRow()}
	s := storeWith(tx)

	err := s.WithDraftLock(context.Background(), pgDraftID, citizenA, func(ctx context.Context, d *model.Draft, dtx DraftTx) error {
		assert.Equal(t, pgDraftID, d.ID)
		require.NotNil(t, d.ConversationID)
		assert.Equal(t, pgConvID, *d.ConversationID)
		require.NotNil(t, d.Fields.CategoryID)
		assert.Equal(t, int64(3), *d.Fields.CategoryID)

		if err := dtx.CreateComplaint(ctx, &model.Complaint{ID: "c1", CitizenID: citizenA, CategoryID: 3}); err != nil {
			return err
		}
		if err := dtx.LinkConversation(ctx, pgConvID, "c1", time.Now()); err != nil {
			return err
		}
		return dtx.DeleteDraft(ctx, d.ID)
	})
	require.NoError(t, err)

	require.Len(t, tx.queries, 1)
	assert.Contains(t, tx.queries[0], "FOR UPDATE")
	require.Len(t, tx.execs, 3)
	assert.True(t, strings.HasPrefix(tx.execs[0], "INSERT INTO complaints"))
	assert.True(t, strings.HasPrefix(tx.execs[1], "UPDATE conversations"))
	assert.True(t, strings.HasPrefix(tx.execs[2], "DELETE FROM drafts"))
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestPostgresWithDraftLockRollsBackOnCallbackError(t *testing.T) {
	tx := &stubTx{row: draftRow()}
	s := storeWith(tx)
	errIncomplete := errors.New("draft incomplete")

	err := s.WithDraftLock(context.Background(), pgDraftID, citizenA, func(context.Context, *model.Draft, DraftTx) error {
		return errIncomplete
	})
	assert.ErrorIs(t, err, errIncomplete)
	assert.Empty(t, tx.execs)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestPostgresWithDraftLockRollsBackOnWriteError(t *testing.T) {
	tx := &stubTx{row: draftRow(), execErr: errors.New("foreign key violation")}
	s := storeWith(tx)

	err := s.WithDraftLock(context.Background(), pgDraftID, citizenA, func(ctx context.Context, d *model.Draft, dtx DraftTx) error {
		return dtx.CreateComplaint(ctx, &model.Complaint{ID: "c1", CitizenID: citizenA})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert complaint")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestPostgresWithDraftLockMissingDraft(t *testing.T) {
	for name, rowErr := range map[string]error{
		"no rows":     pgx.ErrNoRows,
		"invalid id":  &pgconn.PgError{Code: "22P02"},
		"wrapped row": fmt.Errorf("scan: %w", pgx.ErrNoRows),
	} {
		t.Run(name, func(t *testing.T) {
			tx := &stubTx{row: &stubRow{err: rowErr}}
			s := storeWith(tx)

			called := false
			err := s.WithDraftLock(context.Background(), pgDraftID, citizenA, func(context.Context, *model.Draft, DraftTx) error {
				called = true
				return nil
			})
			assert.ErrorIs(t, err, ErrNotFound)
			assert.False(t, called)
			assert.False(t, tx.committed)
		})
	}
}

func TestPostgresWithDraftLockBeginAndCommitErrors(t *testing.T) {
	s := &PostgresStore{begin: beginnerFunc(func(context.Context) (pgx.Tx, error) {
		return nil, errors.New("pool exhausted")
	})}
	err := s.WithDraftLock(context.Background(), pgDraftID, citizenA, func(context.Context, *model.Draft, DraftTx) error {
		t.Fatal("callback must not run without a transaction")
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")

	tx := &stubTx{row: draftRow(), commitErr: errors.New("serialization failure")}
	err = storeWith(tx).WithDraftLock(context.Background(), pgDraftID, citizenA, func(context.Context, *model.Draft, DraftTx) error {
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit draft transaction")
	assert.True(t, tx.rolledBack)
}

func TestPostgresCreateSession(t *testing.T) {
	now := time.Now()
	conv := &model.Conversation{ID: pgConvID, CitizenID: citizenA, CreatedAt: now, UpdatedAt: now}
	d := &model.Draft{ID: pgDraftID, CitizenID: citizenA, ConversationID: &conv.ID, Fields: model.DraftFields{Origin: model.OriginChat}}
	greeting := &model.Turn{ID: "t1", ConversationID: conv.ID, Sender: model.SenderAssistant, Body: "Hola", CreatedAt: now}

	tx := &stubTx{}
	require.NoError(t, storeWith(tx).CreateSession(context.Background(), conv, d, greeting))
	require.Len(t, tx.execs, 3)
	assert.True(t, strings.HasPrefix(tx.execs[0], "INSERT INTO conversations"))
	assert.True(t, strings.HasPrefix(tx.execs[1], "INSERT INTO drafts"))
	assert.True(t, strings.HasPrefix(tx.execs[2], "INSERT INTO turns"))
	assert.True(t, tx.committed)

	failing := &stubTx{execErr: errors.New("unique violation")}
	err := storeWith(failing).CreateSession(context.Background(), conv, d, greeting)
	require.Error(t, err)
	assert.Len(t, failing.execs, 1)
	assert.False(t, failing.committed)
	assert.True(t, failing.rolledBack)
}
