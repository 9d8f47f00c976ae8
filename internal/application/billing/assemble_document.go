package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sisfac/sisfac-api/internal/application/dto"
	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
	domsunat "github.com/sisfac/sisfac-api/internal/domain/sunat"
	"github.com/sisfac/sisfac-api/pkg/logger"
	"github.com/sisfac/sisfac-api/pkg/sunat"
)

const maxSeriesLength = 4

var minExchangeRate = decimal.RequireFromString("0.0001")

// AssemblerConfig parámetros de cálculo tomados de la configuración (SUNAT_*).
type AssemblerConfig struct {
	IGVRate         decimal.Decimal
	Policy          domsunat.TaxablePolicy
	DefaultCurrency string
}

// DocumentAssembler arma comprobantes DRAFT (cabecera + ítems + totales) desde un pedido o a mano.
type DocumentAssembler struct {
	txRunner    SunatTxRunner
	partyRepo   repository.PartyRepository
	docTypeRepo repository.DocumentTypeRepository
	orderRepo   repository.OrderRepository
	docRepo     repository.SunatDocumentRepository
	cfg         AssemblerConfig
	log         *logger.Logger
	now         func() time.Time
}

// NewDocumentAssembler construye el caso de uso.
func NewDocumentAssembler(
	txRunner SunatTxRunner,
	partyRepo repository.PartyRepository,
	docTypeRepo repository.DocumentTypeRepository,
	orderRepo repository.OrderRepository,
	docRepo repository.SunatDocumentRepository,
	cfg AssemblerConfig,
	log *logger.Logger,
) *DocumentAssembler {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = sunat.CurrencyPEN
	}
	if cfg.Policy == "" {
		cfg.Policy = domsunat.PolicyGravadoOnly
	}
	return &DocumentAssembler{
		txRunner:    txRunner,
		partyRepo:   partyRepo,
		docTypeRepo: docTypeRepo,
		orderRepo:   orderRepo,
		docRepo:     docRepo,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
	}
}

// headerInput cabecera normalizada, común al alta manual y desde pedido.
type headerInput struct {
	direction     string
	typeCode      string
	series        string
	number        int64
	issueDate     string
	dueDate       string
	partyID       string
	orderID       string
	currency      string
	paymentTerm   string
	refDocumentID string
	exchangeRate  *decimal.Decimal
}

// AssembleManual crea un comprobante DRAFT a partir de cabecera e ítems enviados por el cliente.
func (uc *DocumentAssembler) AssembleManual(ctx context.Context, businessID string, in dto.AssembleDocumentRequest) (*dto.DocumentResponse, error) {
	items := make([]domsunat.ItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, uc.itemInput(it.ProductID, it.Description, it.Quantity, it.UnitPrice, it.Discount, it.TaxAffectation, it.IGVRate))
	}
	return uc.assemble(ctx, businessID, headerInput{
		direction:     in.Direction,
		typeCode:      in.DocumentTypeCode,
		series:        in.Series,
		number:        in.Number,
		issueDate:     in.IssueDate,
		dueDate:       in.DueDate,
		partyID:       in.PartyID,
		currency:      in.Currency,
		paymentTerm:   in.PaymentTerm,
		refDocumentID: in.RefDocumentID,
		exchangeRate:  in.ExchangeRate,
	}, items)
}

// AssembleFromOrder crea el comprobante de venta de un pedido. Un pedido admite un solo comprobante.
func (uc *DocumentAssembler) AssembleFromOrder(ctx context.Context, businessID string, in dto.AssembleFromOrderRequest) (*dto.DocumentResponse, error) {
	if strings.TrimSpace(in.OrderID) == "" {
		return nil, domain.NewValidationError("order_id", "requerido")
	}
	order, err := uc.orderRepo.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, fmt.Errorf("assemble: obtener pedido: %w", err)
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if order.BusinessID != businessID {
		return nil, domain.NewValidationError("order_id", "el pedido pertenece a otra empresa")
	}
	existing, err := uc.docRepo.GetByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("assemble: buscar comprobante del pedido: %w", err)
	}
	if existing != nil {
		return nil, domain.NewValidationError("order_id", "el pedido ya tiene un comprobante")
	}

	items := make([]domsunat.ItemInput, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, uc.itemInput(it.ProductID, it.Description, it.Quantity, it.UnitPrice, it.Discount, in.TaxAffectation, nil))
	}
	return uc.assemble(ctx, businessID, headerInput{
		direction:    entity.DirectionSale,
		typeCode:     in.DocumentTypeCode,
		series:       in.Series,
		number:       in.Number,
		issueDate:    in.IssueDate,
		dueDate:      in.DueDate,
		partyID:      order.PartyID,
		orderID:      order.ID,
		currency:     order.Currency,
		paymentTerm:  order.PaymentTerm,
		exchangeRate: in.ExchangeRate,
	}, items)
}

func (uc *DocumentAssembler) itemInput(productID, description string, qty, price, discount decimal.Decimal, affectation string, rate *decimal.Decimal) domsunat.ItemInput {
	if affectation == "" {
		affectation = entity.TaxAffectationGravado
	}
	igvRate := uc.cfg.IGVRate
	if rate != nil {
		igvRate = *rate
	}
	return domsunat.ItemInput{
		ProductID:      productID,
		Description:    strings.TrimSpace(description),
		Quantity:       qty,
		UnitPrice:      price,
		Discount:       discount,
		TaxAffectation: affectation,
		IGVRate:        igvRate,
	}
}

func (uc *DocumentAssembler) assemble(ctx context.Context, businessID string, h headerInput, inputs []domsunat.ItemInput) (*dto.DocumentResponse, error) {
	// ── 1. Cabecera ───────────────────────────────────────────────────────────
	direction := strings.ToUpper(strings.TrimSpace(h.direction))
	if direction == "" {
		direction = entity.DirectionSale
	}
	if direction != entity.DirectionSale && direction != entity.DirectionPurchase {
		return nil, domain.NewValidationError("direction", "debe ser SALE o PURCHASE")
	}

	docType, err := uc.docTypeRepo.GetByCode(ctx, strings.TrimSpace(h.typeCode))
	if err != nil {
		return nil, fmt.Errorf("assemble: obtener tipo de comprobante: %w", err)
	}
	if docType == nil || !docType.IsActive {
		return nil, domain.NewValidationError("document_type", "tipo de comprobante desconocido o inactivo")
	}

	series := strings.ToUpper(strings.TrimSpace(h.series))
	if series == "" {
		return nil, domain.NewValidationError("series", "requerida")
	}
	if len(series) > maxSeriesLength {
		return nil, domain.NewValidationError("series", fmt.Sprintf("máximo %d caracteres", maxSeriesLength))
	}
	if h.number < 0 {
		return nil, domain.NewValidationError("number", "debe ser mayor o igual a 0")
	}

	if strings.TrimSpace(h.partyID) == "" {
		return nil, domain.NewValidationError("party_id", "requerido")
	}
	party, err := uc.partyRepo.GetByID(ctx, h.partyID)
	if err != nil {
		return nil, fmt.Errorf("assemble: obtener party: %w", err)
	}
	if party == nil {
		return nil, domain.NewValidationError("party_id", "no existe")
	}
	if party.BusinessID != businessID {
		return nil, domain.NewValidationError("party_id", "la party pertenece a otra empresa")
	}

	currency := strings.ToUpper(strings.TrimSpace(h.currency))
	if currency == "" {
		currency = uc.cfg.DefaultCurrency
	}
	if !sunat.ValidCurrencies[currency] {
		return nil, domain.NewValidationError("currency", "debe ser PEN o USD")
	}
	paymentTerm := strings.ToUpper(strings.TrimSpace(h.paymentTerm))
	if paymentTerm == "" {
		paymentTerm = sunat.PaymentTermCash
	}
	if !sunat.ValidPaymentTerms[paymentTerm] {
		return nil, domain.NewValidationError("payment_term", "debe ser CASH o CREDIT")
	}
	if h.exchangeRate != nil && h.exchangeRate.LessThan(minExchangeRate) {
		return nil, domain.NewValidationError("exchange_rate", "mínimo 0.0001")
	}

	now := uc.now()
	issueDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if h.issueDate != "" {
		if issueDate, err = time.Parse(dateLayout, h.issueDate); err != nil {
			return nil, domain.NewValidationError("issue_date", "formato YYYY-MM-DD")
		}
	}
	var dueDate *time.Time
	if h.dueDate != "" {
		due, err := time.Parse(dateLayout, h.dueDate)
		if err != nil {
			return nil, domain.NewValidationError("due_date", "formato YYYY-MM-DD")
		}
		if due.Before(issueDate) {
			return nil, domain.NewValidationError("due_date", "no puede ser anterior a issue_date")
		}
		dueDate = &due
	}

	// ── 2. Documento de referencia (NC/ND) ────────────────────────────────────
	if docType.IsNote() {
		if h.refDocumentID == "" {
			return nil, domain.NewValidationError("ref_document_id", "requerido para notas de crédito/débito")
		}
		ref, err := uc.docRepo.GetByID(ctx, h.refDocumentID)
		if err != nil {
			return nil, fmt.Errorf("assemble: obtener documento de referencia: %w", err)
		}
		if ref == nil || ref.BusinessID != businessID {
			return nil, domain.NewValidationError("ref_document_id", "no existe")
		}
		if ref.Status != entity.DocumentStatusIssued {
			return nil, domain.NewValidationError("ref_document_id", "el documento de referencia debe estar ISSUED")
		}
	} else if h.refDocumentID != "" {
		return nil, domain.NewValidationError("ref_document_id", "solo aplica a notas de crédito/débito")
	}

	// ── 3. Ítems y totales ────────────────────────────────────────────────────
	if len(inputs) == 0 {
		return nil, domain.NewValidationError("items", "debe tener al menos un ítem")
	}
	items := make([]*entity.SunatDocumentItem, 0, len(inputs))
	for i, in := range inputs {
		if err := domsunat.ValidateItem(i, in); err != nil {
			return nil, err
		}
		items = append(items, domsunat.BuildItem(in))
	}
	totals := domsunat.ComputeTotals(items, uc.cfg.Policy)

	doc := &entity.SunatDocument{
		ID:               uuid.New().String(),
		BusinessID:       businessID,
		Direction:        direction,
		DocumentTypeID:   docType.ID,
		DocumentTypeCode: docType.Code,
		Series:           series,
		Number:           h.number,
		IssueDate:        issueDate,
		PartyID:          party.ID,
		OrderID:          h.orderID,
		Currency:         currency,
		ExchangeRate:     h.exchangeRate,
		PaymentTerm:      paymentTerm,
		DueDate:          dueDate,
		TotalTaxable:     totals.Taxable,
		TotalIGV:         totals.IGV,
		Total:            totals.Total,
		Status:           entity.DocumentStatusDraft,
		RefDocumentID:    h.refDocumentID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, it := range items {
		it.ID = uuid.New().String()
		it.DocumentID = doc.ID
	}
	if err := domsunat.ValidateDocumentTotals(doc, items, uc.cfg.Policy); err != nil {
		return nil, err
	}

	// ── 4. Persistir cabecera + ítems en una sola transacción ─────────────────
	err = uc.txRunner.RunSunat(ctx, func(docRepo repository.SunatDocumentRepository, _ repository.SunatSubmissionRepository) error {
		if doc.OrderID != "" {
			linked, err := docRepo.GetByOrderID(ctx, doc.OrderID)
			if err != nil {
				return fmt.Errorf("buscar comprobante del pedido: %w", err)
			}
			if linked != nil {
				return domain.NewValidationError("order_id", "el pedido ya tiene un comprobante")
			}
		}
		if doc.Number == 0 {
			next, err := docRepo.NextNumber(ctx, doc.BusinessID, doc.Direction, doc.DocumentTypeID, doc.Series)
			if err != nil {
				return fmt.Errorf("siguiente correlativo: %w", err)
			}
			doc.Number = next
		}
		if err := docRepo.Create(ctx, doc); err != nil {
			return err
		}
		for _, it := range items {
			if err := docRepo.CreateItem(ctx, it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("document_id", doc.ID).
		Str("business_id", businessID).
		Str("type", doc.DocumentTypeCode).
		Str("series", doc.Series).
		Int64("number", doc.Number).
		Str("total", doc.Total.StringFixed(2)).
		Msg("comprobante ensamblado")

	return toDocumentResponse(doc, items), nil
}
