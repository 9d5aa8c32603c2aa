package types

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
	"github.com/ministryofjustice/offender-case-notes/pkg/platform/sentinel"
)

// PostgresRegistry reads the taxonomy tables.
type PostgresRegistry struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

const subTypeSelect = `
	SELECT st.code, st.description, st.type_code, t.description,
	       st.active, st.sensitive, st.restricted_use, st.sync_to_nomis, st.dps_user_selectable
	FROM case_note_sub_type st
	JOIN case_note_type t ON t.code = st.type_code`

func (r *PostgresRegistry) Get(ctx context.Context, key models.TypeKey) (*models.SubType, error) {
	row := r.db.QueryRowContext(ctx,
		subTypeSelect+` WHERE st.type_code = $1 AND st.code = $2`,
		key.Type, key.SubType,
	)

	st, err := scanSubType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sub-type %s: %w", key, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query sub-type: %w", err)
	}
	return st, nil
}

// GetAll fetches candidate rows by code sets then keeps exact pair matches,
// since composite-tuple ANY is awkward through database/sql placeholders.
func (r *PostgresRegistry) GetAll(ctx context.Context, keys []models.TypeKey) (map[models.TypeKey]*models.SubType, error) {
	if len(keys) == 0 {
		return map[models.TypeKey]*models.SubType{}, nil
	}

	typeCodes := make([]string, 0, len(keys))
	subCodes := make([]string, 0, len(keys))
	wanted := make(map[models.TypeKey]struct{}, len(keys))
	for _, k := range keys {
		typeCodes = append(typeCodes, k.Type)
		subCodes = append(subCodes, k.SubType)
		wanted[k] = struct{}{}
	}

	rows, err := r.db.QueryContext(ctx,
		subTypeSelect+` WHERE st.type_code = ANY($1) AND st.code = ANY($2)`,
		pq.Array(typeCodes), pq.Array(subCodes),
	)
	if err != nil {
		return nil, fmt.Errorf("query sub-types: %w", err)
	}
	defer rows.Close()

	result := make(map[models.TypeKey]*models.SubType, len(keys))
	for rows.Next() {
		st, err := scanSubType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sub-type: %w", err)
		}
		if _, ok := wanted[st.Key()]; ok {
			result[st.Key()] = st
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sub-types: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubType(row rowScanner) (*models.SubType, error) {
	var st models.SubType
	err := row.Scan(
		&st.Code, &st.Description, &st.TypeCode, &st.TypeDescription,
		&st.Active, &st.Sensitive, &st.RestrictedUse, &st.SyncToNomis, &st.DPSUserSelectable,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
