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

var _ repository.SunatSubmissionRepository = (*SunatSubmissionRepo)(nil)

// SunatSubmissionRepo implementación de SunatSubmissionRepository (usable con pool o tx).
type SunatSubmissionRepo struct {
	q Querier
}

// NewSunatSubmissionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSunatSubmissionRepository(q Querier) *SunatSubmissionRepo {
	return &SunatSubmissionRepo{q: q}
}

const submissionColumns = `id, business_id, document_id, production, is_purchase, file_name, external_id, status,
	document_type_code, series, number, amount, xml_url, cdr_url, issued_at, responded_at, faults, notes,
	error_message, raw_request, raw_response, created_at, updated_at`

func scanSubmission(row pgx.Row) (*entity.SunatSubmission, error) {
	var s entity.SunatSubmission
	var documentID, externalID *string
	var faults, notes, rawReq, rawResp []byte
	err := row.Scan(
		&s.ID, &s.BusinessID, &documentID, &s.Production, &s.IsPurchase, &s.FileName, &externalID, &s.Status,
		&s.DocumentTypeCode, &s.Series, &s.Number, &s.Amount, &s.XMLURL, &s.CDRURL, &s.IssuedAt, &s.RespondedAt,
		&faults, &notes, &s.ErrorMessage, &rawReq, &rawResp, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.DocumentID = derefString(documentID)
	s.ExternalID = derefString(externalID)
	s.Faults, s.Notes, s.RawRequest, s.RawResponse = faults, notes, rawReq, rawResp
	return &s, nil
}

func submissionArgs(s *entity.SunatSubmission) []any {
	return []any{
		s.ID, s.BusinessID, nullIfEmpty(s.DocumentID), s.Production, s.IsPurchase, s.FileName,
		nullIfEmpty(s.ExternalID), s.Status, s.DocumentTypeCode, s.Series, s.Number, s.Amount,
		s.XMLURL, s.CDRURL, s.IssuedAt, s.RespondedAt,
		jsonOrNull(s.Faults), jsonOrNull(s.Notes), s.ErrorMessage, jsonOrNull(s.RawRequest), jsonOrNull(s.RawResponse),
		s.CreatedAt, s.UpdatedAt,
	}
}

const submissionInsert = `
	INSERT INTO sunat_submissions (` + submissionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		$21, $22, $23)`

// Create persiste un envío nuevo.
func (r *SunatSubmissionRepo) Create(ctx context.Context, s *entity.SunatSubmission) error {
	_, err := r.q.Exec(ctx, submissionInsert, submissionArgs(s)...)
	if err != nil {
		return mapSubmissionWriteErr("insert sunat submission", err)
	}
	return nil
}

// InsertIfAbsent inserta salvo que el id externo ya exista.
func (r *SunatSubmissionRepo) InsertIfAbsent(ctx context.Context, s *entity.SunatSubmission) (bool, error) {
	tag, err := r.q.Exec(ctx,
		submissionInsert+` ON CONFLICT (external_id) WHERE external_id IS NOT NULL DO NOTHING`,
		submissionArgs(s)...,
	)
	if err != nil {
		return false, mapSubmissionWriteErr("insert sunat submission", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Update reescribe la fila completa salvo id, business_id y created_at.
// document_id se escribe para asociar envíos que llegaron sin comprobante ubicable.
func (r *SunatSubmissionRepo) Update(ctx context.Context, s *entity.SunatSubmission) error {
	query := `
		UPDATE sunat_submissions SET
			document_id = $3, production = $4, is_purchase = $5, file_name = $6, external_id = $7,
			status = $8, document_type_code = $9, series = $10, number = $11, amount = $12, xml_url = $13,
			cdr_url = $14, issued_at = $15, responded_at = $16, faults = $17, notes = $18,
			error_message = $19, raw_request = $20, raw_response = $21, updated_at = $22
		WHERE id = $1 AND business_id = $2`
	args := submissionArgs(s)
	args = append(args[:21], s.UpdatedAt)
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return mapSubmissionWriteErr("update sunat submission", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapSubmissionWriteErr(op string, err error) error {
	if isUniqueViolation(err) {
		switch constraintName(err) {
		case "uq_sunat_submissions_one_accepted":
			return fmt.Errorf("%w: el comprobante ya tiene un envío ACCEPTED", domain.ErrDataIntegrity)
		case "uq_sunat_submissions_external_id":
			return domain.NewValidationError("submission_id", "el id externo ya pertenece a otro envío")
		}
		return domain.ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *SunatSubmissionRepo) GetByID(ctx context.Context, id string) (*entity.SunatSubmission, error) {
	return r.getOne(ctx, `SELECT `+submissionColumns+` FROM sunat_submissions WHERE id = $1`, id)
}

func (r *SunatSubmissionRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.SunatSubmission, error) {
	return r.getOne(ctx, `SELECT `+submissionColumns+` FROM sunat_submissions WHERE id = $1 FOR UPDATE`, id)
}

func (r *SunatSubmissionRepo) GetByExternalID(ctx context.Context, externalID string) (*entity.SunatSubmission, error) {
	return r.getOne(ctx, `SELECT `+submissionColumns+` FROM sunat_submissions WHERE external_id = $1`, externalID)
}

func (r *SunatSubmissionRepo) GetByExternalIDForUpdate(ctx context.Context, externalID string) (*entity.SunatSubmission, error) {
	return r.getOne(ctx, `SELECT `+submissionColumns+` FROM sunat_submissions WHERE external_id = $1 FOR UPDATE`, externalID)
}

func (r *SunatSubmissionRepo) getOne(ctx context.Context, query string, arg string) (*entity.SunatSubmission, error) {
	s, err := scanSubmission(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sunat submission: %w", err)
	}
	return s, nil
}

// ListByDocument envíos del comprobante en orden de creación.
func (r *SunatSubmissionRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.SunatSubmission, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+submissionColumns+` FROM sunat_submissions WHERE document_id = $1 ORDER BY created_at, id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list sunat submissions: %w", err)
	}
	defer rows.Close()
	var list []*entity.SunatSubmission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sunat submission: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *SunatSubmissionRepo) CountAccepted(ctx context.Context, documentID, excludeID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM sunat_submissions
		WHERE document_id = $1 AND status = 'ACCEPTED' AND id <> $2`, documentID, excludeID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count accepted submissions: %w", err)
	}
	return n, nil
}

// ListRecordsByBusiness vista plana: un registro por envío con id externo, asociado o no.
// Tipo, serie y número caen al comprobante cuando SUNAT aún no los reportó.
func (r *SunatSubmissionRepo) ListRecordsByBusiness(ctx context.Context, businessID string, limit, offset int) ([]*entity.SunatRecord, error) {
	query := `
		SELECT s.external_id, s.business_id, s.document_id, s.id,
			COALESCE(NULLIF(s.document_type_code, ''), dt.code, ''),
			COALESCE(NULLIF(s.series, ''), d.series, ''),
			COALESCE(NULLIF(s.number, ''), d.number::text, ''),
			s.status, s.production, COALESCE(d.direction = 'PURCHASE', s.is_purchase), s.xml_url, s.cdr_url,
			s.issued_at, s.responded_at, s.faults, s.amount, s.file_name
		FROM sunat_submissions s
		LEFT JOIN sunat_documents d ON d.id = s.document_id
		LEFT JOIN document_types dt ON dt.id = d.document_type_id
		WHERE s.business_id = $1 AND s.external_id IS NOT NULL
		ORDER BY s.created_at DESC, s.id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, businessID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sunat records: %w", err)
	}
	defer rows.Close()
	var list []*entity.SunatRecord
	for rows.Next() {
		var rec entity.SunatRecord
		var documentID *string
		var faults []byte
		if err := rows.Scan(
			&rec.ExternalID, &rec.BusinessID, &documentID, &rec.SubmissionID,
			&rec.Type, &rec.Series, &rec.Number, &rec.Status, &rec.Production, &rec.IsPurchase,
			&rec.XMLURL, &rec.CDRURL, &rec.IssueTime, &rec.ResponseTime, &faults, &rec.Amount, &rec.FileName,
		); err != nil {
			return nil, fmt.Errorf("scan sunat record: %w", err)
		}
		rec.DocumentID = derefString(documentID)
		rec.Faults = faults
		list = append(list, &rec)
	}
	return list, rows.Err()
}
