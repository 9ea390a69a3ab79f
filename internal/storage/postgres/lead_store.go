package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JakeFAU/empresasbrasil/internal/crm"
)

const leadColumns = `id::text, user_id, nome, empresa, telefone, email, endereco, cnpj, website, categoria,
  rating, reviews_count, fonte, dados_originais, notas, stage, created_at, updated_at`

// LeadStore persists leads in crm_leads.
type LeadStore struct {
	db DB
}

// NewLeadStore wraps db.
func NewLeadStore(db DB) *LeadStore {
	return &LeadStore{db: db}
}

func scanLead(row pgx.Row) (crm.Lead, error) {
	var (
		l     crm.Lead
		stage string
		raw   []byte
	)
	err := row.Scan(&l.ID, &l.UserID, &l.Nome, &l.Empresa, &l.Telefone, &l.Email, &l.Endereco, &l.CNPJ,
		&l.Website, &l.Categoria, &l.Rating, &l.ReviewsCount, &l.Fonte, &raw, &l.Notas, &stage,
		&l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return crm.Lead{}, crm.ErrNotFound
	}
	if err != nil {
		return crm.Lead{}, err
	}
	l.Stage = crm.Stage(stage)
	if len(raw) > 0 {
		l.DadosOriginais = raw
	}
	return l, nil
}

// Create implements crm.Store.
func (s *LeadStore) Create(ctx context.Context, l crm.Lead) error {
	var raw any
	if len(l.DadosOriginais) > 0 {
		raw = []byte(l.DadosOriginais)
	}
	_, err := s.db.Exec(ctx, `
INSERT INTO crm_leads (
	id, user_id, nome, empresa, telefone, email, endereco, cnpj, website, categoria,
	rating, reviews_count, fonte, dados_originais, notas, stage, dedup_key, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19
)`,
		l.ID, l.UserID, l.Nome, l.Empresa, l.Telefone, l.Email, l.Endereco, l.CNPJ, l.Website, l.Categoria,
		l.Rating, l.ReviewsCount, l.Fonte, raw, l.Notas, string(l.Stage), l.Key(), l.CreatedAt, l.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return crm.ErrDuplicate
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// List implements crm.Store, newest first.
func (s *LeadStore) List(ctx context.Context, userID int64, stage crm.Stage) ([]crm.Lead, error) {
	sql := "SELECT " + leadColumns + " FROM crm_leads WHERE user_id = $1"
	args := []any{userID}
	if stage != "" {
		sql += " AND stage = $2"
		args = append(args, string(stage))
	}
	sql += " ORDER BY created_at DESC, id"
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	leads, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (crm.Lead, error) {
		return scanLead(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan leads: %w", err)
	}
	if leads == nil {
		leads = []crm.Lead{}
	}
	return leads, nil
}

// Get implements crm.Store.
func (s *LeadStore) Get(ctx context.Context, userID int64, id string) (crm.Lead, error) {
	l, err := scanLead(s.db.QueryRow(ctx,
		"SELECT "+leadColumns+" FROM crm_leads WHERE user_id = $1 AND id::text = $2", userID, id))
	if err != nil && !errors.Is(err, crm.ErrNotFound) {
		return crm.Lead{}, fmt.Errorf("query lead: %w", err)
	}
	return l, err
}

// UpdateStage implements crm.Store.
func (s *LeadStore) UpdateStage(ctx context.Context, userID int64, id string, stage crm.Stage, at time.Time) (crm.Lead, error) {
	return s.update(ctx, "stage", string(stage), userID, id, at)
}

// UpdateNotes implements crm.Store.
func (s *LeadStore) UpdateNotes(ctx context.Context, userID int64, id, notes string, at time.Time) (crm.Lead, error) {
	return s.update(ctx, "notas", notes, userID, id, at)
}

// update sets one whitelisted column; column never comes from user input.
func (s *LeadStore) update(ctx context.Context, column, value string, userID int64, id string, at time.Time) (crm.Lead, error) {
	sql := fmt.Sprintf(`UPDATE crm_leads SET %s = $1, updated_at = $2
WHERE user_id = $3 AND id::text = $4
RETURNING `+leadColumns, column)
	l, err := scanLead(s.db.QueryRow(ctx, sql, value, at, userID, id))
	if err != nil && !errors.Is(err, crm.ErrNotFound) {
		return crm.Lead{}, fmt.Errorf("update lead %s: %w", column, err)
	}
	return l, err
}

// Delete implements crm.Store.
func (s *LeadStore) Delete(ctx context.Context, userID int64, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM crm_leads WHERE user_id = $1 AND id::text = $2", userID, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return crm.ErrNotFound
	}
	return nil
}

// ExistingKeys implements crm.Store.
func (s *LeadStore) ExistingKeys(ctx context.Context, userID int64, keys []string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		"SELECT dedup_key FROM crm_leads WHERE user_id = $1 AND dedup_key = ANY($2)", userID, keys)
	if err != nil {
		return nil, fmt.Errorf("query lead keys: %w", err)
	}
	existing, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan lead keys: %w", err)
	}
	return existing, nil
}

// CountByStage implements crm.Store.
func (s *LeadStore) CountByStage(ctx context.Context, userID int64) (map[crm.Stage]int64, error) {
	rows, err := s.db.Query(ctx, "SELECT stage, COUNT(*) FROM crm_leads WHERE user_id = $1 GROUP BY stage", userID)
	if err != nil {
		return nil, fmt.Errorf("query funnel: %w", err)
	}
	defer rows.Close()
	counts := make(map[crm.Stage]int64)
	for rows.Next() {
		var (
			stage string
			n     int64
		)
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, fmt.Errorf("scan funnel: %w", err)
		}
		counts[crm.Stage(stage)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate funnel: %w", err)
	}
	return counts, nil
}
