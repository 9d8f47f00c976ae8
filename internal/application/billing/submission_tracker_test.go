package billing_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
)

func TestSubmit_CreaEnvioPendiente(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", facturaID, "01", "F001", 45)
	uc := newTracker(s)

	resp, err := uc.Submit(context.Background(), bizID, "doc-1", false)
	require.NoError(t, err)

	assert.Equal(t, entity.SubmissionStatusPending, resp.Status)
	assert.Equal(t, "20131312955-01-F001-45", resp.FileName)
	assert.Empty(t, resp.ExternalID)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(resp.RawRequest, &raw))
	assert.Equal(t, "20131312955-01-F001-45", raw["fileName"])
	assert.Equal(t, false, raw["production"])
	assert.NotContains(t, string(resp.RawRequest), "secreta", "nunca se guardan credenciales")
}

func TestSubmit_ReintentoCreaOtraFila(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", facturaID, "01", "F001", 45)
	uc := newTracker(s)
	ctx := context.Background()

	first, err := uc.Submit(ctx, bizID, "doc-1", false)
	require.NoError(t, err)
	second, err := uc.Submit(ctx, bizID, "doc-1", false)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	list, err := uc.ListByDocument(ctx, bizID, "doc-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestSubmit_ComprobanteAnuladoFalla(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", facturaID, "01", "F001", 45).Status = entity.DocumentStatusVoid
	uc := newTracker(s)

	_, err := uc.Submit(context.Background(), bizID, "doc-1", false)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, s.subs)
}

func TestSubmit_ProduccionRequiereConfiguracion(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", facturaID, "01", "F001", 45)
	uc := newTracker(s)
	ctx := context.Background()

	_, err := uc.Submit(ctx, bizID, "doc-1", true)
	requireValidation(t, err, "production")

	s.configs[bizID] = &entity.BusinessSunatConfig{BusinessID: bizID, PersonaID: "p", PersonaToken: "t", ProductionEnabled: true}
	resp, err := uc.Submit(ctx, bizID, "doc-1", true)
	require.NoError(t, err)
	assert.True(t, resp.Production)
	assert.NotContains(t, string(resp.RawRequest), "\"t\"")
}

func TestSubmit_EmpresaSinRUC(t *testing.T) {
	s := seededStore()
	s.businesses[bizID].RUC = ""
	putDocument(s, "doc-1", facturaID, "01", "F001", 45)

	_, err := newTracker(s).Submit(context.Background(), bizID, "doc-1", false)
	requireValidation(t, err, "ruc")
}

func TestSubmit_ComprobanteDeOtraEmpresa(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", facturaID, "01", "F001", 45)
	uc := newTracker(s)

	_, err := uc.Submit(context.Background(), otherBizID, "doc-1", false)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Submit(context.Background(), bizID, "nope", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordError_PendienteAError(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", facturaID, "01", "F001", 45)
	uc := newTracker(s)
	ctx := context.Background()

	sub, err := uc.Submit(ctx, bizID, "doc-1", false)
	require.NoError(t, err)

	resp, err := uc.RecordError(ctx, bizID, sub.ID, "timeout contra APISUNAT")
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionStatusError, resp.Status)
	assert.Equal(t, "timeout contra APISUNAT", resp.ErrorMessage)

	_, err = uc.RecordError(ctx, bizID, sub.ID, "otra vez")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "timeout contra APISUNAT", s.subs[sub.ID].ErrorMessage)

	_, err = uc.RecordError(ctx, bizID, sub.ID, "  ")
	requireValidation(t, err, "message")
}
