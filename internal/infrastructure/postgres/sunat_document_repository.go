package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
)

var _ repository.SunatDocumentRepository = (*SunatDocumentRepo)(nil)

// SunatDocumentRepo implementación de SunatDocumentRepository (usable con pool o tx).
type SunatDocumentRepo struct {
	q Querier
}

// NewSunatDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSunatDocumentRepository(q Querier) *SunatDocumentRepo {
	return &SunatDocumentRepo{q: q}
}

// El código de tipo se une desde el catálogo; nunca se guarda en la cabecera.
const documentSelect = `
	SELECT d.id, d.business_id, d.direction, d.document_type_id, dt.code, d.series, d.number,
		d.issue_date, d.party_id, d.order_id, d.currency, d.exchange_rate, d.payment_term, d.due_date,
		d.total_taxable, d.total_igv, d.total, d.status, d.ref_document_id, d.created_at, d.updated_at
	FROM sunat_documents d
	JOIN document_types dt ON dt.id = d.document_type_id`

func scanDocument(row pgx.Row) (*entity.SunatDocument, error) {
	var d entity.SunatDocument
	var orderID, refID *string
	err := row.Scan(
		&d.ID, &d.BusinessID, &d.Direction, &d.DocumentTypeID, &d.DocumentTypeCode, &d.Series, &d.Number,
		&d.IssueDate, &d.PartyID, &orderID, &d.Currency, &d.ExchangeRate, &d.PaymentTerm, &d.DueDate,
		&d.TotalTaxable, &d.TotalIGV, &d.Total, &d.Status, &refID, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.OrderID = derefString(orderID)
	d.RefDocumentID = derefString(refID)
	return &d, nil
}

// Create persiste la cabecera. Los choques de unicidad se devuelven como ValidationError del campo afectado.
func (r *SunatDocumentRepo) Create(ctx context.Context, doc *entity.SunatDocument) error {
	query := `
		INSERT INTO sunat_documents (
			id, business_id, direction, document_type_id, series, number, issue_date, party_id, order_id,
			currency, exchange_rate, payment_term, due_date, total_taxable, total_igv, total, status,
			ref_document_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.BusinessID, doc.Direction, doc.DocumentTypeID, doc.Series, doc.Number, doc.IssueDate,
		doc.PartyID, nullIfEmpty(doc.OrderID), doc.Currency, doc.ExchangeRate, doc.PaymentTerm, doc.DueDate,
		doc.TotalTaxable, doc.TotalIGV, doc.Total, doc.Status, nullIfEmpty(doc.RefDocumentID),
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if constraintName(err) == "uq_sunat_documents_order" {
				return domain.NewValidationError("order_id", "el pedido ya tiene comprobante")
			}
			return domain.NewValidationError("number", "ya existe un comprobante con esa serie y número")
		}
		return fmt.Errorf("insert sunat document: %w", err)
	}
	return nil
}

// CreateItem persiste una línea; line_no sigue el orden de inserción.
func (r *SunatDocumentRepo) CreateItem(ctx context.Context, it *entity.SunatDocumentItem) error {
	query := `
		INSERT INTO sunat_document_items (
			id, document_id, line_no, product_id, description, quantity, unit_price, discount,
			tax_affectation, igv_rate, line_total, igv_amount)
		VALUES ($1, $2,
			(SELECT COALESCE(MAX(line_no), 0) + 1 FROM sunat_document_items WHERE document_id = $2),
			$3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.DocumentID, nullIfEmpty(it.ProductID), it.Description, it.Quantity, it.UnitPrice, it.Discount,
		it.TaxAffectation, it.IGVRate, it.LineTotal, it.IGVAmount,
	)
	if err != nil {
		return fmt.Errorf("insert sunat document item: %w", err)
	}
	return nil
}

func (r *SunatDocumentRepo) GetByID(ctx context.Context, id string) (*entity.SunatDocument, error) {
	return r.getOne(ctx, documentSelect+` WHERE d.id = $1`, id)
}

// GetByIDForUpdate bloquea la cabecera (solo tiene efecto dentro de una tx).
func (r *SunatDocumentRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.SunatDocument, error) {
	return r.getOne(ctx, documentSelect+` WHERE d.id = $1 FOR UPDATE OF d`, id)
}

func (r *SunatDocumentRepo) GetByKey(ctx context.Context, businessID, direction, documentTypeID, series string, number int64) (*entity.SunatDocument, error) {
	query := documentSelect + `
		WHERE d.business_id = $1 AND d.direction = $2 AND d.document_type_id = $3 AND d.series = $4 AND d.number = $5`
	return r.getOne(ctx, query, businessID, direction, documentTypeID, series, number)
}

func (r *SunatDocumentRepo) GetByOrderID(ctx context.Context, orderID string) (*entity.SunatDocument, error) {
	return r.getOne(ctx, documentSelect+` WHERE d.order_id = $1`, orderID)
}

func (r *SunatDocumentRepo) getOne(ctx context.Context, query string, args ...any) (*entity.SunatDocument, error) {
	doc, err := scanDocument(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sunat document: %w", err)
	}
	return doc, nil
}

// GetItems líneas del comprobante en orden.
func (r *SunatDocumentRepo) GetItems(ctx context.Context, documentID string) ([]*entity.SunatDocumentItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, document_id, product_id, description, quantity, unit_price, discount,
			tax_affectation, igv_rate, line_total, igv_amount
		FROM sunat_document_items WHERE document_id = $1 ORDER BY line_no`, documentID)
	if err != nil {
		return nil, fmt.Errorf("get sunat document items: %w", err)
	}
	defer rows.Close()
	var list []*entity.SunatDocumentItem
	for rows.Next() {
		var it entity.SunatDocumentItem
		var productID *string
		if err := rows.Scan(
			&it.ID, &it.DocumentID, &productID, &it.Description, &it.Quantity, &it.UnitPrice, &it.Discount,
			&it.TaxAffectation, &it.IGVRate, &it.LineTotal, &it.IGVAmount,
		); err != nil {
			return nil, fmt.Errorf("scan sunat document item: %w", err)
		}
		it.ProductID = derefString(productID)
		list = append(list, &it)
	}
	return list, rows.Err()
}

// ListByBusiness lista comprobantes de la empresa, más recientes primero.
// ListBySeriesNumber comprobantes de cualquier tipo con esa serie y número (máximo limit).
func (r *SunatDocumentRepo) ListBySeriesNumber(ctx context.Context, businessID, direction, series string, number int64, limit int) ([]*entity.SunatDocument, error) {
	query := documentSelect + `
		WHERE d.business_id = $1 AND d.direction = $2 AND d.series = $3 AND d.number = $4
		ORDER BY dt.code LIMIT $5`
	return r.list(ctx, query, businessID, direction, series, number, limit)
}

func (r *SunatDocumentRepo) ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]*entity.SunatDocument, error) {
	query := documentSelect + ` WHERE d.business_id = $1 ORDER BY d.created_at DESC, d.id LIMIT $2 OFFSET $3`
	return r.list(ctx, query, businessID, limit, offset)
}

func (r *SunatDocumentRepo) list(ctx context.Context, query string, args ...any) ([]*entity.SunatDocument, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sunat documents: %w", err)
	}
	defer rows.Close()
	var list []*entity.SunatDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sunat document: %w", err)
		}
		list = append(list, doc)
	}
	return list, rows.Err()
}

func (r *SunatDocumentRepo) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE sunat_documents SET status = $2, updated_at = $3 WHERE id = $1`, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update sunat document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// NextNumber MAX+1 dentro de la serie; el índice único resuelve la carrera entre dos emisores.
func (r *SunatDocumentRepo) NextNumber(ctx context.Context, businessID, direction, documentTypeID, series string) (int64, error) {
	var next int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(MAX(number), 0) + 1 FROM sunat_documents
		WHERE business_id = $1 AND direction = $2 AND document_type_id = $3 AND series = $4`,
		businessID, direction, documentTypeID, series,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next sunat document number: %w", err)
	}
	return next, nil
}
