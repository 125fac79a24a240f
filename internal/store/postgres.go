package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
)

// pgBeginner opens the transactions used for session creation and the
// draft lock. *pgxpool.Pool satisfies it.
type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore is the PostgreSQL-backed Store.
type PostgresStore struct {
	pool  *pgxpool.Pool
	begin pgBeginner
}

// NewPostgresStore connects a pool to the database at dsn.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool, begin: pool}, nil
}

// Pool exposes the underlying pool.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// notFound maps "no rows" and malformed identifiers to ErrNotFound so that a
// bad id is indistinguishable from a missing record.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.TrimSpace(pgErr.Code) == "22P02" {
		return ErrNotFound
	}
	return err
}

// CitizenExists reports whether a citizen profile exists.
func (s *PostgresStore) CitizenExists(ctx context.Context, citizenID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM citizens WHERE user_id::text = $1)`, citizenID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check citizen: %w", err)
	}
	return exists, nil
}

// CreateSession stores a conversation, its draft and the greeting turn in one transaction.
func (s *PostgresStore) CreateSession(ctx context.Context, conv *model.Conversation, draft *model.Draft, greeting *model.Turn) error {
	fields, err := json.Marshal(draft.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal draft fields: %w", err)
	}

	tx, err := s.begin.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO conversations (id, citizen_id, complaint_id, created_at, updated_at)
VALUES ($1::uuid, $2::uuid, NULL, $3, $4)`,
		conv.ID, conv.CitizenID, conv.CreatedAt, conv.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO drafts (id, citizen_id, conversation_id, fields, ready_to_submit, created_at, updated_at)
VALUES ($1::uuid, $2::uuid, $3::uuid, $4::jsonb, $5, $6, $7)`,
		draft.ID, draft.CitizenID, draft.ConversationID, string(fields), draft.ReadyToSubmit, draft.CreatedAt, draft.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert draft: %w", err)
	}

	if greeting != nil {
		if err := insertTurn(ctx, tx, greeting); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertTurn(ctx context.Context, db execer, turn *model.Turn) error {
	if _, err := db.Exec(ctx, `
INSERT INTO turns (id, conversation_id, sender, body, created_at)
VALUES ($1::uuid, $2::uuid, $3, $4, $5)`,
		turn.ID, turn.ConversationID, string(turn.Sender), turn.Body, turn.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

// GetConversation returns a conversation owned by citizenID.
func (s *PostgresStore) GetConversation(ctx context.Context, id, citizenID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.pool.QueryRow(ctx, `
SELECT id::text, citizen_id::text, complaint_id::text, created_at, updated_at
FROM conversations
WHERE id = $1::uuid AND citizen_id = $2::uuid`, id, citizenID).
		Scan(&conv.ID, &conv.CitizenID, &conv.ComplaintID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &conv, nil
}

// AppendTurn appends a turn to its conversation log.
func (s *PostgresStore) AppendTurn(ctx context.Context, turn *model.Turn) error {
	return insertTurn(ctx, s.pool, turn)
}

// RecentTurns returns the newest turns of a conversation, oldest first.
func (s *PostgresStore) RecentTurns(ctx context.Context, conversationID string, limit int) ([]model.Turn, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, conversation_id, sender, body, created_at FROM (
  SELECT id::text, conversation_id::text, sender, body, created_at, seq
  FROM turns
  WHERE conversation_id = $1::uuid
  ORDER BY created_at DESC, seq DESC
  LIMIT $2
) recent
ORDER BY created_at ASC, seq ASC`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", notFound(err))
	}
	return scanTurns(rows)
}

// ListTurns returns every turn of a conversation, oldest first.
func (s *PostgresStore) ListTurns(ctx context.Context, conversationID string) ([]model.Turn, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id::text, conversation_id::text, sender, body, created_at
FROM turns
WHERE conversation_id = $1::uuid
ORDER BY created_at ASC, seq ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", notFound(err))
	}
	return scanTurns(rows)
}

func scanTurns(rows pgx.Rows) ([]model.Turn, error) {
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		var t model.Turn
		var sender string
		if err := rows.Scan(&t.ID, &t.ConversationID, &sender, &t.Body, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.Sender = model.Sender(sender)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read turns: %w", err)
	}
	return turns, nil
}

const draftColumns = `id::text, citizen_id::text, conversation_id::text, fields, ready_to_submit, created_at, updated_at`

func scanDraft(row pgx.Row) (*model.Draft, error) {
	var d model.Draft
	var fields []byte
	if err := row.Scan(&d.ID, &d.CitizenID, &d.ConversationID, &fields, &d.ReadyToSubmit, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &d.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode draft fields: %w", err)
		}
	}
	return &d, nil
}

// GetDraft returns a draft owned by citizenID.
func (s *PostgresStore) GetDraft(ctx context.Context, id, citizenID string) (*model.Draft, error) {
	return scanDraft(s.pool.QueryRow(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE id = $1::uuid AND citizen_id = $2::uuid`, id, citizenID))
}

// DraftForConversation returns the draft linked to a conversation.
func (s *PostgresStore) DraftForConversation(ctx context.Context, conversationID, citizenID string) (*model.Draft, error) {
	return scanDraft(s.pool.QueryRow(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE conversation_id = $1::uuid AND citizen_id = $2::uuid`, conversationID, citizenID))
}

// UpdateDraft persists the fields and readiness of an existing draft.
func (s *PostgresStore) UpdateDraft(ctx context.Context, d *model.Draft) error {
	fields, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal draft fields: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
UPDATE drafts SET fields = $3::jsonb, ready_to_submit = $4, updated_at = $5
WHERE id = $1::uuid AND citizen_id = $2::uuid`,
		d.ID, d.CitizenID, string(fields), d.ReadyToSubmit, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update draft: %w", notFound(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// WithDraftLock selects the draft FOR UPDATE inside a transaction and commits
// the writes made through tx when fn succeeds. A concurrent caller blocks on
// the row lock and then observes ErrNotFound if the first caller deleted it.
func (s *PostgresStore) WithDraftLock(ctx context.Context, id, citizenID string, fn func(ctx context.Context, d *model.Draft, tx DraftTx) error) error {
	tx, err := s.begin.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	d, err := scanDraft(tx.QueryRow(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE id = $1::uuid AND citizen_id = $2::uuid FOR UPDATE`, id, citizenID))
	if err != nil {
		return err
	}

	if err := fn(ctx, d, &pgDraftTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit draft transaction: %w", err)
	}
	return nil
}

type pgDraftTx struct {
	tx pgx.Tx
}

func (t *pgDraftTx) CreateComplaint(ctx context.Context, c *model.Complaint) error {
	return insertComplaint(ctx, t.tx, c)
}

func (t *pgDraftTx) LinkConversation(ctx context.Context, conversationID, complaintID string, at time.Time) error {
	if _, err := t.tx.Exec(ctx, `
UPDATE conversations SET complaint_id = $2::uuid, updated_at = $3 WHERE id = $1::uuid`,
		conversationID, complaintID, at); err != nil {
		return fmt.Errorf("failed to link conversation: %w", err)
	}
	return nil
}

func (t *pgDraftTx) DeleteDraft(ctx context.Context, draftID string) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM drafts WHERE id = $1::uuid`, draftID); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

func insertComplaint(ctx context.Context, db execer, c *model.Complaint) error {
	if _, err := db.Exec(ctx, `
INSERT INTO complaints (id, citizen_id, category_id, description, reference, latitude, longitude,
                        address_text, origin, status, created_at, updated_at)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.CitizenID, c.CategoryID, c.Description, c.Reference, c.Latitude, c.Longitude,
		c.AddressText, c.Origin, string(c.Status), c.CreatedAt, c.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert complaint: %w", err)
	}
	return nil
}

// CreateComplaint stores a complaint outside the chat flow.
func (s *PostgresStore) CreateComplaint(ctx context.Context, c *model.Complaint) error {
	return insertComplaint(ctx, s.pool, c)
}

func scanCategories(rows pgx.Rows) ([]model.Category, error) {
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Active); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return out, nil
}

// ActiveCategories returns active categories sorted by name.
func (s *PostgresStore) ActiveCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, active FROM categories WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	return scanCategories(rows)
}

// MatchCategories matches active category names against term in both directions.
func (s *PostgresStore) MatchCategories(ctx context.Context, term string) ([]model.Category, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, name, active
FROM categories
WHERE active
  AND (strpos(lower(name), lower($1)) > 0 OR strpos(lower($1), lower(name)) > 0)
ORDER BY id`, term)
	if err != nil {
		return nil, fmt.Errorf("failed to match categories: %w", err)
	}
	return scanCategories(rows)
}

const complaintColumns = `c.id::text, c.citizen_id::text, c.category_id, c.description, c.reference, c.latitude,
       c.longitude, c.address_text, c.origin, c.status, c.created_at, c.updated_at`

func scanComplaint(row pgx.Row, c *model.Complaint, extra ...any) error {
	var status string
	dest := []any{&c.ID, &c.CitizenID, &c.CategoryID, &c.Description, &c.Reference, &c.Latitude,
		&c.Longitude, &c.AddressText, &c.Origin, &status, &c.CreatedAt, &c.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return fmt.Errorf("failed to scan complaint: %w", err)
	}
	c.Status = model.ComplaintStatus(status)
	return nil
}

// ListComplaints returns a citizen's complaints, newest first.
func (s *PostgresStore) ListComplaints(ctx context.Context, citizenID string, limit int) ([]model.Complaint, error) {
	rows, err := s.pool.Query(ctx, `
SELECT `+complaintColumns+`
FROM complaints c
WHERE c.citizen_id = $1::uuid
ORDER BY c.created_at DESC
LIMIT $2`, citizenID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", notFound(err))
	}
	defer rows.Close()

	var out []model.Complaint
	for rows.Next() {
		var c model.Complaint
		if err := scanComplaint(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read complaints: %w", err)
	}
	return out, nil
}

// SearchComplaints filters complaints for the map, newest first.
func (s *PostgresStore) SearchComplaints(ctx context.Context, f ComplaintFilter) ([]ComplaintRow, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.CitizenID != "" {
		where = append(where, "c.citizen_id = "+arg(f.CitizenID)+"::uuid")
	}
	if f.CategoryID != nil {
		where = append(where, "c.category_id = "+arg(*f.CategoryID))
	}
	if f.Since != nil {
		where = append(where, "c.created_at >= "+arg(*f.Since))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		p := arg("%" + q + "%")
		where = append(where, "(c.description ILIKE "+p+" OR c.reference ILIKE "+p+")")
	}
	if b := f.Box; b != nil {
		where = append(where,
			"c.latitude BETWEEN "+arg(b.MinLat)+" AND "+arg(b.MaxLat),
			"c.longitude BETWEEN "+arg(b.MinLng)+" AND "+arg(b.MaxLng))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + complaintColumns + ", COALESCE(t.name, '')\nFROM complaints c\nLEFT JOIN categories t ON t.id = c.category_id\n")
	if len(where) > 0 {
		sb.WriteString("WHERE " + strings.Join(where, "\n  AND ") + "\n")
	}
	sb.WriteString("ORDER BY c.created_at DESC")
	if f.Limit > 0 {
		sb.WriteString("\nLIMIT " + arg(f.Limit))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search complaints: %w", notFound(err))
	}
	defer rows.Close()

	var out []ComplaintRow
	for rows.Next() {
		var r ComplaintRow
		if err := scanComplaint(rows, &r.Complaint, &r.CategoryName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read complaints: %w", err)
	}
	return out, nil
}
