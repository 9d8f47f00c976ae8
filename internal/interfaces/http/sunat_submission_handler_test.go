package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisfac/sisfac-api/internal/application/billing"
	"github.com/sisfac/sisfac-api/internal/application/dto"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
	apphttp "github.com/sisfac/sisfac-api/internal/interfaces/http"
	"github.com/sisfac/sisfac-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// memSubs envíos en memoria indexados por id. Los métodos no usados por la conciliación
// quedan en la interfaz embebida (nil) y entran en pánico si se llaman.
type memSubs struct {
	repository.SunatSubmissionRepository
	byID map[string]*entity.SunatSubmission
}

func (m *memSubs) find(externalID string) *entity.SunatSubmission {
	for _, s := range m.byID {
		if s.ExternalID == externalID {
			cp := *s
			return &cp
		}
	}
	return nil
}

func (m *memSubs) GetByExternalIDForUpdate(_ context.Context, externalID string) (*entity.SunatSubmission, error) {
	return m.find(externalID), nil
}

func (m *memSubs) GetByIDForUpdate(_ context.Context, id string) (*entity.SunatSubmission, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSubs) InsertIfAbsent(_ context.Context, s *entity.SunatSubmission) (bool, error) {
	if m.find(s.ExternalID) != nil {
		return false, nil
	}
	cp := *s
	m.byID[s.ID] = &cp
	return true, nil
}

func (m *memSubs) Update(_ context.Context, s *entity.SunatSubmission) error {
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

// memDocs sin comprobantes locales: todo envío conciliado queda suelto.
type memDocs struct {
	repository.SunatDocumentRepository
}

func (memDocs) ListBySeriesNumber(context.Context, string, string, string, int64, int) ([]*entity.SunatDocument, error) {
	return nil, nil
}

type memDocTypes struct {
	repository.DocumentTypeRepository
}

func (memDocTypes) GetByCode(context.Context, string) (*entity.DocumentType, error) {
	return nil, nil
}

type memSunatTx struct {
	docs memDocs
	subs *memSubs
}

func (tx *memSunatTx) RunSunat(_ context.Context, fn func(repository.SunatDocumentRepository, repository.SunatSubmissionRepository) error) error {
	return fn(tx.docs, tx.subs)
}

func buildReconcileApp(subs *memSubs) *fiber.App {
	engine := billing.NewReconciliationEngine(&memSunatTx{subs: subs}, memDocTypes{}, nil, logger.Nop())
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{Engine: engine, JWTSecret: testJWTSecret})
	return app
}

const reconcilePath = "/api/sunat-submissions/reconcile"

// ──────────────────────────────────────────────────────────────────────────────
// Conciliación vía router
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcileHandler_SinID_400(t *testing.T) {
	subs := &memSubs{byID: map[string]*entity.SunatSubmission{}}
	app := buildReconcileApp(subs)

	for _, body := range []string{
		`{"payload":{"status":"ACEPTADO","numero":45}}`,
		`{"payload":{"id":"   ","status":"ACEPTADO"}}`,
	} {
		resp := doJSON(t, app, http.MethodPost, reconcilePath, body, bearer(t, testBusinessID))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "MISSING_EXTERNAL_ID", decodeError(t, resp).Code)
		resp.Body.Close()
	}
	assert.Empty(t, subs.byID)
}

func TestReconcileHandler_PayloadValido_200(t *testing.T) {
	subs := &memSubs{byID: map[string]*entity.SunatSubmission{}}
	app := buildReconcileApp(subs)
	auth := bearer(t, testBusinessID)

	resp := doJSON(t, app, http.MethodPost, reconcilePath,
		`{"payload":{"id":"ext-http-1","status":"ACEPTADO","serie":"b001","numero":45,"issueTime":1767225600}}`, auth)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.SubmissionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ext-http-1", out.ExternalID)
	assert.Equal(t, entity.SubmissionStatusAccepted, out.Status)
	assert.Equal(t, "45", out.Number)
	assert.Empty(t, out.DocumentID, "sin comprobante local el envío queda suelto")
	assert.Equal(t, "2026-01-01T00:00:00Z", out.IssuedAt)

	stored := subs.find("ext-http-1")
	require.NotNil(t, stored)
	assert.Equal(t, testBusinessID, stored.BusinessID)

	// Reenvío parcial: solo cambia lo que trae el payload.
	again := doJSON(t, app, http.MethodPost, reconcilePath,
		`{"payload":{"id":"ext-http-1","xml":"https://x/1.xml"}}`, auth)
	defer again.Body.Close()
	require.Equal(t, http.StatusOK, again.StatusCode)
	assert.Len(t, subs.byID, 1)
	stored = subs.find("ext-http-1")
	assert.Equal(t, entity.SubmissionStatusAccepted, stored.Status)
	assert.Equal(t, "45", stored.Number)
	assert.Equal(t, "https://x/1.xml", stored.XMLURL)
}

func TestReconcileHandler_SerieDemasiadoLarga_422(t *testing.T) {
	subs := &memSubs{byID: map[string]*entity.SunatSubmission{}}
	resp := doJSON(t, buildReconcileApp(subs), http.MethodPost, reconcilePath,
		`{"payload":{"id":"ext-http-2","serie":"B0010000000","numero":1}}`, bearer(t, testBusinessID))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Equal(t, "serie", body.Field)
	assert.Empty(t, subs.byID)
}

func TestReconcileHandler_TipoInvalido_400(t *testing.T) {
	resp := doJSON(t, buildReconcileApp(&memSubs{byID: map[string]*entity.SunatSubmission{}}), http.MethodPost, reconcilePath,
		`{"payload":{"id":"ext-http-3","numero":true}}`, bearer(t, testBusinessID))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Code)
}
