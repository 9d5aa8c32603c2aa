package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
	"github.com/ministryofjustice/offender-case-notes/pkg/platform/sentinel"
	txcontext "github.com/ministryofjustice/offender-case-notes/pkg/platform/tx"
)

// PostgresStore implements Store on database/sql. Writes pick up an ambient
// transaction from context so RunInTx callers get all-or-nothing semantics.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// RunInTx executes fn inside a single database transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Run(ctx, s.db, fn)
}

const noteColumns = `
	n.id, n.person_identifier, n.occurred_at, n.location_id,
	n.author_username, n.author_user_id, n.author_name,
	n.note_text, n.system_generated, n.legacy_id,
	n.created_at, n.created_by, n.version,
	st.code, st.description, st.type_code, t.description,
	st.active, st.sensitive, st.restricted_use, st.sync_to_nomis, st.dps_user_selectable`

const noteFrom = `
	FROM case_note n
	JOIN case_note_sub_type st ON st.type_code = n.type_code AND st.code = n.sub_type_code
	JOIN case_note_type t ON t.code = st.type_code`

// CreateBatch inserts notes and their amendments.
func (s *PostgresStore) CreateBatch(ctx context.Context, notes []*models.CaseNote) error {
	ex := s.execer(ctx)

	const insertNote = `
		INSERT INTO case_note (
			id, person_identifier, type_code, sub_type_code, occurred_at,
			location_id, author_username, author_user_id, author_name,
			note_text, system_generated, legacy_id, created_at, created_by, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	const insertAmendment = `
		INSERT INTO case_note_amendment (
			id, case_note_id, author_username, author_user_id, author_name,
			amendment_text, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, n := range notes {
		_, err := ex.ExecContext(ctx, insertNote,
			n.ID,
			n.PersonIdentifier,
			n.SubType.TypeCode,
			n.SubType.Code,
			n.OccurredAt,
			n.LocationID,
			n.Author.Username,
			n.Author.UserID,
			n.Author.Name,
			n.Text,
			n.SystemGenerated,
			n.LegacyID,
			n.Audit.CreatedAt,
			n.Audit.CreatedBy,
			n.Version,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert case note %s: %w", n.ID, sentinel.ErrConflict)
			}
			return fmt.Errorf("insert case note %s: %w", n.ID, err)
		}

		for _, a := range n.Amendments {
			_, err := ex.ExecContext(ctx, insertAmendment,
				a.ID, n.ID, a.Author.Username, a.Author.UserID, a.Author.Name, a.Text, a.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert amendment %s: %w", a.ID, err)
			}
		}
	}
	return nil
}

// Get returns a single note with amendments.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*models.CaseNote, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT`+noteColumns+noteFrom+` WHERE n.id = $1`, id)

	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case note %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query case note: %w", err)
	}

	if err := s.attachAmendments(ctx, []*models.CaseNote{note}); err != nil {
		return nil, err
	}
	return note, nil
}

// Find returns notes matching the filter, amendments included.
func (s *PostgresStore) Find(ctx context.Context, filter models.NoteFilter) ([]*models.CaseNote, error) {
	where, args := compileFilter(filter)

	query := `SELECT` + noteColumns + noteFrom
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY n.occurred_at, n.id`

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query case notes: %w", err)
	}
	defer rows.Close()

	notes, err := scanNotes(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachAmendments(ctx, notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// ListByPerson returns all live notes for an identifier, unfiltered.
func (s *PostgresStore) ListByPerson(ctx context.Context, personIdentifier string) ([]*models.CaseNote, error) {
	return s.Find(ctx, models.NoteFilter{PersonIdentifier: personIdentifier})
}

// AddAmendment appends an amendment and bumps the note version.
func (s *PostgresStore) AddAmendment(ctx context.Context, noteID uuid.UUID, a models.Amendment) error {
	ex := s.execer(ctx)

	res, err := ex.ExecContext(ctx,
		`UPDATE case_note SET version = version + 1 WHERE id = $1`, noteID)
	if err != nil {
		return fmt.Errorf("bump case note version: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("case note %s: %w", noteID, sentinel.ErrNotFound)
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO case_note_amendment (
			id, case_note_id, author_username, author_user_id, author_name,
			amendment_text, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, noteID, a.Author.Username, a.Author.UserID, a.Author.Name, a.Text, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert amendment: %w", err)
	}
	return nil
}

// SoftDelete archives the note then removes the live row. The archive keeps a
// JSON snapshot of the full graph so content survives the cascade.
func (s *PostgresStore) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string, cause models.DeletionCause) (*models.CaseNote, error) {
	note, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(note)
	if err != nil {
		return nil, fmt.Errorf("marshal deleted note snapshot: %w", err)
	}

	ex := s.execer(ctx)
	_, err = ex.ExecContext(ctx, `
		INSERT INTO deleted_case_note (id, case_note_id, note, deleted_at, deleted_by, cause)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), note.ID, snapshot, time.Now().UTC(), deletedBy, string(cause),
	)
	if err != nil {
		return nil, fmt.Errorf("archive deleted note: %w", err)
	}

	if _, err := ex.ExecContext(ctx, `DELETE FROM case_note WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete case note: %w", err)
	}
	return note, nil
}

// HardDelete removes a note without archiving (merge re-homing only).
func (s *PostgresStore) HardDelete(ctx context.Context, id uuid.UUID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM case_note WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete case note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("case note %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

// NextLegacyID allocates from the shared sequence. Deliberately reads through
// the pool, not the ambient transaction, so allocation stays monotonic across
// concurrent instances and survives rollbacks.
func (s *PostgresStore) NextLegacyID(ctx context.Context) (int64, error) {
	var next int64
	err := s.db.QueryRowContext(ctx, `SELECT nextval('case_note_legacy_id_seq')`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next legacy id: %w", err)
	}
	return next, nil
}

// MigratedLegacyIDs maps already-migrated legacy ids to their internal ids.
func (s *PostgresStore) MigratedLegacyIDs(ctx context.Context, legacyIDs []int64) (map[int64]uuid.UUID, error) {
	if len(legacyIDs) == 0 {
		return map[int64]uuid.UUID{}, nil
	}

	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT legacy_id, id FROM case_note WHERE legacy_id = ANY($1)`,
		pq.Array(legacyIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("query migrated legacy ids: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]uuid.UUID, len(legacyIDs))
	for rows.Next() {
		var legacyID int64
		var id uuid.UUID
		if err := rows.Scan(&legacyID, &id); err != nil {
			return nil, fmt.Errorf("scan migrated legacy id: %w", err)
		}
		result[legacyID] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate migrated legacy ids: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) attachAmendments(ctx context.Context, notes []*models.CaseNote) error {
	if len(notes) == 0 {
		return nil
	}

	ids := make([]string, len(notes))
	byID := make(map[uuid.UUID]*models.CaseNote, len(notes))
	for i, n := range notes {
		ids[i] = n.ID.String()
		byID[n.ID] = n
	}

	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, case_note_id, author_username, author_user_id, author_name,
		       amendment_text, created_at
		FROM case_note_amendment
		WHERE case_note_id = ANY($1)
		ORDER BY created_at, id`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("query amendments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.Amendment
		var noteID uuid.UUID
		err := rows.Scan(&a.ID, &noteID, &a.Author.Username, &a.Author.UserID,
			&a.Author.Name, &a.Text, &a.CreatedAt)
		if err != nil {
			return fmt.Errorf("scan amendment: %w", err)
		}
		if n, ok := byID[noteID]; ok {
			n.Amendments = append(n.Amendments, a)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate amendments: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*models.CaseNote, error) {
	var n models.CaseNote
	err := row.Scan(
		&n.ID, &n.PersonIdentifier, &n.OccurredAt, &n.LocationID,
		&n.Author.Username, &n.Author.UserID, &n.Author.Name,
		&n.Text, &n.SystemGenerated, &n.LegacyID,
		&n.Audit.CreatedAt, &n.Audit.CreatedBy, &n.Version,
		&n.SubType.Code, &n.SubType.Description, &n.SubType.TypeCode, &n.SubType.TypeDescription,
		&n.SubType.Active, &n.SubType.Sensitive, &n.SubType.RestrictedUse,
		&n.SubType.SyncToNomis, &n.SubType.DPSUserSelectable,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func scanNotes(rows *sql.Rows) ([]*models.CaseNote, error) {
	var notes []*models.CaseNote
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case notes: %w", err)
	}
	return notes, nil
}

// compileFilter translates a NoteFilter into a WHERE clause. Semantics match
// models.NoteFilter.Matches: case-insensitive identifier, inclusive date
// bounds, type keys as an OR of (type AND sub-type) groups.
func compileFilter(f models.NoteFilter) (string, []any) {
	var clauses []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.PersonIdentifier != "" {
		clauses = append(clauses, "upper(n.person_identifier) = upper("+arg(f.PersonIdentifier)+")")
	}
	if len(f.TypeKeys) > 0 {
		var groups []string
		for _, k := range f.TypeKeys {
			if k.SubType == "" {
				groups = append(groups, "n.type_code = "+arg(k.Type))
			} else {
				groups = append(groups, "(n.type_code = "+arg(k.Type)+" AND n.sub_type_code = "+arg(k.SubType)+")")
			}
		}
		clauses = append(clauses, "("+strings.Join(groups, " OR ")+")")
	}
	if f.OccurredFrom != nil {
		clauses = append(clauses, "n.occurred_at >= "+arg(*f.OccurredFrom))
	}
	if f.OccurredTo != nil {
		clauses = append(clauses, "n.occurred_at <= "+arg(*f.OccurredTo))
	}
	if f.ExcludeSensitive {
		clauses = append(clauses, "st.sensitive = false")
	}

	return strings.Join(clauses, " AND "), args
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
