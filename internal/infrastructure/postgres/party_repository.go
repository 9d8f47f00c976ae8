package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
)

var _ repository.PartyRepository = (*PartyRepo)(nil)

// PartyRepo implementación de PartyRepository (usable con pool o tx).
type PartyRepo struct {
	q Querier
}

// NewPartyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPartyRepository(q Querier) *PartyRepo {
	return &PartyRepo{q: q}
}

const partyColumns = `id, business_id, doc_type, doc_number, name, address, email, phone, is_active, created_at, updated_at`

func scanParty(row pgx.Row) (*entity.Party, error) {
	var p entity.Party
	err := row.Scan(
		&p.ID, &p.BusinessID, &p.DocType, &p.DocNumber, &p.Name, &p.Address, &p.Email, &p.Phone,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste una nueva party.
func (r *PartyRepo) Create(ctx context.Context, p *entity.Party) error {
	query := `
		INSERT INTO parties (` + partyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.BusinessID, p.DocType, p.DocNumber, p.Name, p.Address, p.Email, p.Phone,
		p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert party: %w", err)
	}
	return nil
}

// GetByID obtiene una party por ID.
func (r *PartyRepo) GetByID(ctx context.Context, id string) (*entity.Party, error) {
	p, err := scanParty(r.q.QueryRow(ctx, `SELECT `+partyColumns+` FROM parties WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get party: %w", err)
	}
	return p, nil
}

// GetByBusinessAndDoc obtiene una party por su documento de identidad dentro de la empresa.
func (r *PartyRepo) GetByBusinessAndDoc(ctx context.Context, businessID, docType, docNumber string) (*entity.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE business_id = $1 AND doc_type = $2 AND doc_number = $3`
	p, err := scanParty(r.q.QueryRow(ctx, query, businessID, docType, docNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get party by doc: %w", err)
	}
	return p, nil
}

// ListByBusiness lista parties de la empresa con paginación.
func (r *PartyRepo) ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]*entity.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE business_id = $1 ORDER BY name LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, businessID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	defer rows.Close()
	var list []*entity.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan party: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Update actualiza una party.
func (r *PartyRepo) Update(ctx context.Context, p *entity.Party) error {
	query := `
		UPDATE parties SET doc_type = $2, doc_number = $3, name = $4, address = $5, email = $6,
			phone = $7, is_active = $8, updated_at = $9
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.DocType, p.DocNumber, p.Name, p.Address, p.Email, p.Phone, p.IsActive, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update party: %w", err)
	}
	return nil
}

// Delete elimina una party; falla si algún comprobante o pedido la referencia.
func (r *PartyRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM parties WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProtectedReference
		}
		return fmt.Errorf("delete party: %w", err)
	}
	return nil
}

// IsReferencedByIssued indica si algún comprobante ISSUED apunta a la party.
func (r *PartyRepo) IsReferencedByIssued(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sunat_documents WHERE party_id = $1 AND status = 'ISSUED')`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check party references: %w", err)
	}
	return exists, nil
}
