package billing_test

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sisfac/sisfac-api/internal/application/billing"
	"github.com/sisfac/sisfac-api/internal/application/dto"
	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
	domsunat "github.com/sisfac/sisfac-api/internal/domain/sunat"
	"github.com/sisfac/sisfac-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Almacén en memoria con rollback por snapshot (simula la transacción de Postgres)
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	businesses map[string]*entity.Business
	configs    map[string]*entity.BusinessSunatConfig
	parties    map[string]*entity.Party
	docTypes   map[string]*entity.DocumentType
	orders     map[string]*entity.Order
	docs       map[string]*entity.SunatDocument
	items      map[string][]*entity.SunatDocumentItem
	subs       map[string]*entity.SunatSubmission
	seq        int            // contador de inserción de envíos
	subSeq     map[string]int // orden de inserción por envío

	// beforeInsert se ejecuta dentro de InsertIfAbsent; simula otra transacción concurrente.
	beforeInsert func(s *memStore)
}

func newMemStore() *memStore {
	return &memStore{
		businesses: map[string]*entity.Business{},
		configs:    map[string]*entity.BusinessSunatConfig{},
		parties:    map[string]*entity.Party{},
		docTypes:   map[string]*entity.DocumentType{},
		orders:     map[string]*entity.Order{},
		docs:       map[string]*entity.SunatDocument{},
		items:      map[string][]*entity.SunatDocumentItem{},
		subs:       map[string]*entity.SunatSubmission{},
		subSeq:     map[string]int{},
	}
}

type snapshot struct {
	docs   map[string]entity.SunatDocument
	items  map[string][]*entity.SunatDocumentItem
	subs   map[string]entity.SunatSubmission
	subSeq map[string]int
	seq    int
}

func (s *memStore) snapshot() snapshot {
	snap := snapshot{
		docs:   map[string]entity.SunatDocument{},
		items:  map[string][]*entity.SunatDocumentItem{},
		subs:   map[string]entity.SunatSubmission{},
		subSeq: map[string]int{},
		seq:    s.seq,
	}
	for k, v := range s.docs {
		snap.docs[k] = *v
	}
	for k, v := range s.items {
		snap.items[k] = append([]*entity.SunatDocumentItem(nil), v...)
	}
	for k, v := range s.subs {
		snap.subs[k] = *v
	}
	for k, v := range s.subSeq {
		snap.subSeq[k] = v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.docs = map[string]*entity.SunatDocument{}
	for k, v := range snap.docs {
		d := v
		s.docs[k] = &d
	}
	s.items = snap.items
	s.subs = map[string]*entity.SunatSubmission{}
	for k, v := range snap.subs {
		sub := v
		s.subs[k] = &sub
	}
	s.subSeq = snap.subSeq
	s.seq = snap.seq
}

// ── TxRunner ────────────────────────────────────────────────────────────────

type fakeTx struct{ s *memStore }

func (t fakeTx) RunSunat(ctx context.Context, fn func(repository.SunatDocumentRepository, repository.SunatSubmissionRepository) error) error {
	snap := t.s.snapshot()
	if err := fn(fakeDocRepo{t.s}, fakeSubRepo{t.s}); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

// ── Business ────────────────────────────────────────────────────────────────

type fakeBusinessRepo struct{ s *memStore }

func (r fakeBusinessRepo) GetByID(_ context.Context, id string) (*entity.Business, error) {
	if b, ok := r.s.businesses[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (r fakeBusinessRepo) GetSunatConfig(_ context.Context, businessID string) (*entity.BusinessSunatConfig, error) {
	if c, ok := r.s.configs[businessID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

// ── Party ───────────────────────────────────────────────────────────────────

type fakePartyRepo struct{ s *memStore }

func (r fakePartyRepo) Create(_ context.Context, p *entity.Party) error {
	cp := *p
	r.s.parties[p.ID] = &cp
	return nil
}

func (r fakePartyRepo) GetByID(_ context.Context, id string) (*entity.Party, error) {
	if p, ok := r.s.parties[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r fakePartyRepo) GetByBusinessAndDoc(_ context.Context, businessID, docType, docNumber string) (*entity.Party, error) {
	for _, p := range r.s.parties {
		if p.BusinessID == businessID && p.DocType == docType && p.DocNumber == docNumber {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakePartyRepo) ListByBusiness(_ context.Context, businessID string, limit, offset int) ([]*entity.Party, error) {
	var out []*entity.Party
	for _, p := range r.s.parties {
		if p.BusinessID == businessID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

func (r fakePartyRepo) Update(_ context.Context, p *entity.Party) error {
	cp := *p
	r.s.parties[p.ID] = &cp
	return nil
}

func (r fakePartyRepo) Delete(_ context.Context, id string) error {
	for _, d := range r.s.docs {
		if d.PartyID == id {
			return domain.ErrProtectedReference
		}
	}
	delete(r.s.parties, id)
	return nil
}

func (r fakePartyRepo) IsReferencedByIssued(_ context.Context, id string) (bool, error) {
	for _, d := range r.s.docs {
		if d.PartyID == id && d.Status == entity.DocumentStatusIssued {
			return true, nil
		}
	}
	return false, nil
}

// ── DocumentType ────────────────────────────────────────────────────────────

type fakeDocTypeRepo struct{ s *memStore }

func (r fakeDocTypeRepo) Create(_ context.Context, t *entity.DocumentType) error {
	cp := *t
	r.s.docTypes[t.ID] = &cp
	return nil
}

func (r fakeDocTypeRepo) GetByID(_ context.Context, id string) (*entity.DocumentType, error) {
	if t, ok := r.s.docTypes[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r fakeDocTypeRepo) GetByCode(_ context.Context, code string) (*entity.DocumentType, error) {
	for _, t := range r.s.docTypes {
		if t.Code == code {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeDocTypeRepo) List(_ context.Context) ([]*entity.DocumentType, error) {
	var out []*entity.DocumentType
	for _, t := range r.s.docTypes {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r fakeDocTypeRepo) Delete(_ context.Context, id string) error {
	for _, d := range r.s.docs {
		if d.DocumentTypeID == id {
			return domain.ErrProtectedReference
		}
	}
	delete(r.s.docTypes, id)
	return nil
}

// ── Order ───────────────────────────────────────────────────────────────────

type fakeOrderRepo struct{ s *memStore }

func (r fakeOrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	if o, ok := r.s.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

// ── SunatDocument ───────────────────────────────────────────────────────────

type fakeDocRepo struct{ s *memStore }

func (r fakeDocRepo) Create(_ context.Context, d *entity.SunatDocument) error {
	for _, ex := range r.s.docs {
		if ex.BusinessID == d.BusinessID && ex.Direction == d.Direction && ex.DocumentTypeID == d.DocumentTypeID &&
			ex.Series == d.Series && ex.Number == d.Number {
			return domain.NewValidationError("number", "ya existe un comprobante con esa serie y número")
		}
		if d.OrderID != "" && ex.OrderID == d.OrderID {
			return domain.NewValidationError("order_id", "el pedido ya tiene un comprobante")
		}
	}
	cp := *d
	r.s.docs[d.ID] = &cp
	return nil
}

func (r fakeDocRepo) CreateItem(_ context.Context, it *entity.SunatDocumentItem) error {
	cp := *it
	r.s.items[it.DocumentID] = append(r.s.items[it.DocumentID], &cp)
	return nil
}

func (r fakeDocRepo) GetByID(_ context.Context, id string) (*entity.SunatDocument, error) {
	if d, ok := r.s.docs[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (r fakeDocRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.SunatDocument, error) {
	return r.GetByID(ctx, id)
}

func (r fakeDocRepo) GetByKey(_ context.Context, businessID, direction, documentTypeID, series string, number int64) (*entity.SunatDocument, error) {
	for _, d := range r.s.docs {
		if d.BusinessID == businessID && d.Direction == direction && d.DocumentTypeID == documentTypeID &&
			d.Series == series && d.Number == number {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeDocRepo) ListBySeriesNumber(_ context.Context, businessID, direction, series string, number int64, limit int) ([]*entity.SunatDocument, error) {
	var out []*entity.SunatDocument
	for _, d := range r.s.docs {
		if d.BusinessID == businessID && d.Direction == direction && d.Series == series && d.Number == number {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentTypeCode < out[j].DocumentTypeCode })
	return page(out, limit, 0), nil
}

func (r fakeDocRepo) GetByOrderID(_ context.Context, orderID string) (*entity.SunatDocument, error) {
	for _, d := range r.s.docs {
		if d.OrderID == orderID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeDocRepo) GetItems(_ context.Context, documentID string) ([]*entity.SunatDocumentItem, error) {
	return r.s.items[documentID], nil
}

func (r fakeDocRepo) ListByBusiness(_ context.Context, businessID string, limit, offset int) ([]*entity.SunatDocument, error) {
	var out []*entity.SunatDocument
	for _, d := range r.s.docs {
		if d.BusinessID == businessID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return page(out, limit, offset), nil
}

func (r fakeDocRepo) UpdateStatus(_ context.Context, id, status string, updatedAt time.Time) error {
	d, ok := r.s.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.Status = status
	d.UpdatedAt = updatedAt
	return nil
}

func (r fakeDocRepo) NextNumber(_ context.Context, businessID, direction, documentTypeID, series string) (int64, error) {
	var last int64
	for _, d := range r.s.docs {
		if d.BusinessID == businessID && d.Direction == direction && d.DocumentTypeID == documentTypeID &&
			d.Series == series && d.Number > last {
			last = d.Number
		}
	}
	return last + 1, nil
}

// ── SunatSubmission ─────────────────────────────────────────────────────────

type fakeSubRepo struct{ s *memStore }

func (r fakeSubRepo) put(sub *entity.SunatSubmission) {
	cp := *sub
	if _, ok := r.s.subs[sub.ID]; !ok {
		r.s.seq++
		r.s.subSeq[sub.ID] = r.s.seq
	}
	r.s.subs[sub.ID] = &cp
}

func (r fakeSubRepo) Create(_ context.Context, sub *entity.SunatSubmission) error {
	r.put(sub)
	return nil
}

func (r fakeSubRepo) GetByID(_ context.Context, id string) (*entity.SunatSubmission, error) {
	if sub, ok := r.s.subs[id]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, nil
}

func (r fakeSubRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.SunatSubmission, error) {
	return r.GetByID(ctx, id)
}

func (r fakeSubRepo) GetByExternalID(_ context.Context, externalID string) (*entity.SunatSubmission, error) {
	for _, sub := range r.s.subs {
		if sub.ExternalID != "" && sub.ExternalID == externalID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeSubRepo) GetByExternalIDForUpdate(ctx context.Context, externalID string) (*entity.SunatSubmission, error) {
	return r.GetByExternalID(ctx, externalID)
}

func (r fakeSubRepo) InsertIfAbsent(ctx context.Context, sub *entity.SunatSubmission) (bool, error) {
	if r.s.beforeInsert != nil {
		hook := r.s.beforeInsert
		r.s.beforeInsert = nil
		hook(r.s)
	}
	if existing, _ := r.GetByExternalID(ctx, sub.ExternalID); existing != nil {
		return false, nil
	}
	r.put(sub)
	return true, nil
}

func (r fakeSubRepo) Update(_ context.Context, sub *entity.SunatSubmission) error {
	if prev, ok := r.s.subs[sub.ID]; !ok || prev.BusinessID != sub.BusinessID {
		return domain.ErrNotFound
	}
	if sub.Status == entity.SubmissionStatusAccepted && sub.DocumentID != "" {
		for _, other := range r.s.subs {
			if other.ID != sub.ID && other.DocumentID == sub.DocumentID && other.Status == entity.SubmissionStatusAccepted {
				return domain.ErrDataIntegrity
			}
		}
	}
	r.put(sub)
	return nil
}

func (r fakeSubRepo) ListByDocument(_ context.Context, documentID string) ([]*entity.SunatSubmission, error) {
	var out []*entity.SunatSubmission
	for _, sub := range r.s.subs {
		if sub.DocumentID == documentID {
			cp := *sub
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.s.subSeq[out[i].ID] < r.s.subSeq[out[j].ID] })
	return out, nil
}

func (r fakeSubRepo) CountAccepted(_ context.Context, documentID, excludeID string) (int, error) {
	n := 0
	for _, sub := range r.s.subs {
		if sub.DocumentID == documentID && sub.ID != excludeID && sub.Status == entity.SubmissionStatusAccepted {
			n++
		}
	}
	return n, nil
}

func (r fakeSubRepo) ListRecordsByBusiness(_ context.Context, businessID string, limit, offset int) ([]*entity.SunatRecord, error) {
	var out []*entity.SunatRecord
	for _, sub := range r.s.subs {
		if sub.ExternalID == "" || sub.BusinessID != businessID {
			continue
		}
		isPurchase := sub.IsPurchase
		if doc := r.s.docs[sub.DocumentID]; doc != nil {
			isPurchase = doc.Direction == entity.DirectionPurchase
		}
		out = append(out, &entity.SunatRecord{
			ExternalID:   sub.ExternalID,
			BusinessID:   sub.BusinessID,
			DocumentID:   sub.DocumentID,
			SubmissionID: sub.ID,
			Type:         sub.DocumentTypeCode,
			Series:       sub.Series,
			Number:       sub.Number,
			Status:       sub.Status,
			Production:   sub.Production,
			IsPurchase:   isPurchase,
			XMLURL:       sub.XMLURL,
			CDRURL:       sub.CDRURL,
			Amount:       sub.Amount,
			FileName:     sub.FileName,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return page(out, limit, offset), nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture común
// ──────────────────────────────────────────────────────────────────────────────

const (
	bizID      = "biz-1"
	otherBizID = "biz-2"
	bizRUC     = "20131312955"
	partyID    = "party-1"
	foreignID  = "party-foreign"
	facturaID  = "dt-01"
	boletaID   = "dt-03"
	ncID       = "dt-07"
)

type fakeExtractor struct {
	data *dto.ProcessedData
	err  error
}

func (f fakeExtractor) Extract([]byte) (*dto.ProcessedData, error) { return f.data, f.err }

type fakePDF struct{ calls int }

func (f *fakePDF) GenerateDocumentPDF(_ context.Context, data billing.DocumentPDFData) ([]byte, error) {
	f.calls++
	return []byte("%PDF-" + data.Document.Series), nil
}

func seededStore() *memStore {
	s := newMemStore()
	s.businesses[bizID] = &entity.Business{ID: bizID, Name: "Bodega Central", RUC: bizRUC, SolKey: "secreta"}
	s.businesses[otherBizID] = &entity.Business{ID: otherBizID, Name: "Otra", RUC: "20100047218"}
	s.parties[partyID] = &entity.Party{ID: partyID, BusinessID: bizID, DocType: "6", DocNumber: "20100047218", Name: "Cliente SAC", IsActive: true}
	s.parties[foreignID] = &entity.Party{ID: foreignID, BusinessID: otherBizID, DocType: "1", DocNumber: "12345678", Name: "Ajeno", IsActive: true}
	s.docTypes[facturaID] = &entity.DocumentType{ID: facturaID, Code: "01", Name: "Factura", IsActive: true}
	s.docTypes[boletaID] = &entity.DocumentType{ID: boletaID, Code: "03", Name: "Boleta de venta", IsActive: true}
	s.docTypes[ncID] = &entity.DocumentType{ID: ncID, Code: "07", Name: "Nota de crédito", IsActive: true}
	return s
}

func newAssembler(s *memStore, policy domsunat.TaxablePolicy) *billing.DocumentAssembler {
	return billing.NewDocumentAssembler(
		fakeTx{s}, fakePartyRepo{s}, fakeDocTypeRepo{s}, fakeOrderRepo{s}, fakeDocRepo{s},
		billing.AssemblerConfig{IGVRate: decimal.RequireFromString("0.18"), Policy: policy, DefaultCurrency: "PEN"},
		logger.Nop(),
	)
}

func newTracker(s *memStore) *billing.SubmissionTracker {
	return billing.NewSubmissionTracker(fakeTx{s}, fakeBusinessRepo{s}, fakeDocRepo{s}, fakeSubRepo{s}, logger.Nop())
}

func newEngine(s *memStore, extractor billing.ProcessedDataExtractor) *billing.ReconciliationEngine {
	return billing.NewReconciliationEngine(fakeTx{s}, fakeDocTypeRepo{s}, extractor, logger.Nop())
}

// putDocument inserta directamente un comprobante DRAFT con una línea gravada de 100.
func putDocument(s *memStore, id, typeID, typeCode, series string, number int64) *entity.SunatDocument {
	d := &entity.SunatDocument{
		ID:               id,
		BusinessID:       bizID,
		Direction:        entity.DirectionSale,
		DocumentTypeID:   typeID,
		DocumentTypeCode: typeCode,
		Series:           series,
		Number:           number,
		IssueDate:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PartyID:          partyID,
		Currency:         "PEN",
		PaymentTerm:      "CASH",
		TotalTaxable:     decimal.NewFromInt(100),
		TotalIGV:         decimal.NewFromInt(18),
		Total:            decimal.NewFromInt(118),
		Status:           entity.DocumentStatusDraft,
	}
	s.docs[id] = d
	s.items[id] = []*entity.SunatDocumentItem{{
		ID: id + "-1", DocumentID: id, Description: "Servicio", Quantity: decimal.NewFromInt(1),
		UnitPrice: decimal.NewFromInt(100), TaxAffectation: "10", IGVRate: decimal.RequireFromString("0.18"),
		LineTotal: decimal.NewFromInt(100), IGVAmount: decimal.NewFromInt(18),
	}}
	return d
}

// putSubmission inserta un envío PENDING sin id externo (handle devuelto por Submit).
func putSubmission(s *memStore, id, documentID string) {
	fakeSubRepo{s}.put(&entity.SunatSubmission{
		ID:         id,
		BusinessID: bizID,
		DocumentID: documentID,
		FileName:   "20131312955-03-B001-45",
		Status:     entity.SubmissionStatusPending,
		CreatedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})
}
