package billing_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisfac/sisfac-api/internal/application/dto"
	"github.com/sisfac/sisfac-api/internal/domain"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func boolPtr(b bool) *bool { return &b }

// boletaPayload respuesta típica de getById para la boleta B001-45.
func boletaPayload(id, status string) dto.SunatPayload {
	return dto.SunatPayload{
		ID:     id,
		Type:   "03",
		Serie:  "B001",
		Numero: "00000045",
		Status: status,
	}
}

func reconcile(t *testing.T, s *memStore, in dto.ReconcileRequest) (*dto.SubmissionResponse, error) {
	t.Helper()
	return newEngine(s, nil).Reconcile(context.Background(), bizID, in)
}

// ──────────────────────────────────────────────────────────────────────────────
// Id externo y creación
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcile_SinIDExternoNoEscribe(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)

	_, err := reconcile(t, s, dto.ReconcileRequest{Payload: dto.SunatPayload{ID: "  ", Status: "ACEPTADO"}})
	assert.ErrorIs(t, err, domain.ErrMissingExternalID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, s.subs)
}

func TestReconcile_CreaEnvioYEmiteComprobante(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)

	resp, err := reconcile(t, s, dto.ReconcileRequest{Payload: boletaPayload("ext-1", "ACEPTADO")})
	require.NoError(t, err)

	assert.Equal(t, "ext-1", resp.ExternalID)
	assert.Equal(t, "doc-1", resp.DocumentID)
	assert.Equal(t, entity.SubmissionStatusAccepted, resp.Status)
	assert.Equal(t, "B001", resp.Series)
	assert.Equal(t, "00000045", resp.Number)
	assert.Equal(t, entity.DocumentStatusIssued, s.docs["doc-1"].Status)
}

func TestReconcile_ComprobanteDeCompraPorIsPurchase(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-sale", boletaID, "03", "B001", 45)
	purchase := putDocument(s, "doc-buy", boletaID, "03", "B001", 45)
	purchase.Direction = entity.DirectionPurchase

	p := boletaPayload("ext-1", "")
	p.IsPurchase = boolPtr(true)
	resp, err := reconcile(t, s, dto.ReconcileRequest{Payload: p})
	require.NoError(t, err)
	assert.Equal(t, "doc-buy", resp.DocumentID)
	assert.Equal(t, entity.SubmissionStatusPending, resp.Status, "estado ausente queda en PENDING")
}

// Un id externo desconocido siempre se registra, aunque el comprobante local aún no exista.
func TestReconcile_ComprobanteLocalInexistenteQuedaSuelto(t *testing.T) {
	s := seededStore()

	resp, err := reconcile(t, s, dto.ReconcileRequest{Payload: boletaPayload("ext-1", "ACEPTADO")})
	require.NoError(t, err)
	assert.Empty(t, resp.DocumentID)
	assert.Equal(t, entity.SubmissionStatusAccepted, resp.Status)
	require.Len(t, s.subs, 1)
	for _, sub := range s.subs {
		assert.Equal(t, bizID, sub.BusinessID)
	}
}

// El envío suelto se asocia cuando aparece el comprobante y una conciliación posterior lo ubica.
func TestReconcile_AsociaEnvioSueltoDespues(t *testing.T) {
	s := seededStore()
	_, err := reconcile(t, s, dto.ReconcileRequest{Payload: boletaPayload("ext-1", "ACEPTADO")})
	require.NoError(t, err)

	putDocument(s, "doc-1", boletaID, "03", "B001", 45)
	resp, err := reconcile(t, s, dto.ReconcileRequest{Payload: dto.SunatPayload{ID: "ext-1", CDR: "c"}})
	require.NoError(t, err)

	assert.Equal(t, "doc-1", resp.DocumentID)
	assert.Equal(t, entity.SubmissionStatusAccepted, resp.Status)
	assert.Equal(t, "c", resp.CDRURL)
	assert.Equal(t, entity.DocumentStatusIssued, s.docs["doc-1"].Status, "la aceptación previa emite al asociar")
	assert.Len(t, s.subs, 1)
}

func TestReconcile_SinTipoUbicaPorSerieYNumeroUnicos(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)

	resp, err := reconcile(t, s, dto.ReconcileRequest{Payload: dto.SunatPayload{ID: "ext-1", Serie: "b001", Numero: "45"}})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", resp.DocumentID)
}

func TestReconcile_SinTipoAmbiguoQuedaSuelto(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-b", boletaID, "03", "B001", 45)
	putDocument(s, "doc-f", facturaID, "01", "B001", 45)

	resp, err := reconcile(t, s, dto.ReconcileRequest{Payload: dto.SunatPayload{ID: "ext-1", Serie: "B001", Numero: "45", Status: "ACEPTADO"}})
	require.NoError(t, err)
	assert.Empty(t, resp.DocumentID)
	assert.Equal(t, entity.DocumentStatusDraft, s.docs["doc-b"].Status)
	assert.Equal(t, entity.DocumentStatusDraft, s.docs["doc-f"].Status)
}

func TestReconcile_IdentificadoresDemasiadoLargos(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)
	putSubmission(s, "sub-1", "doc-1")

	cases := []struct {
		payload dto.SunatPayload
		field   string
	}{
		{dto.SunatPayload{ID: "ext-1", Type: "003"}, "type"},
		{dto.SunatPayload{ID: "ext-1", Serie: "B0010000000"}, "serie"},
		{dto.SunatPayload{ID: "ext-1", Numero: "000000000000000000045"}, "numero"},
		{dto.SunatPayload{ID: "ext-1", FileName: "SERIEMUYLARGA1-45.xml"}, "serie"},
	}
	for _, tc := range cases {
		_, err := reconcile(t, s, dto.ReconcileRequest{SubmissionID: "sub-1", Payload: tc.payload})
		requireValidation(t, err, tc.field)
	}
	assert.Empty(t, s.subs["sub-1"].ExternalID, "no hay escritura parcial")
}

func TestReconcile_VinculaHandleDelEnvio(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)
	putSubmission(s, "sub-1", "doc-1")

	resp, err := reconcile(t, s, dto.ReconcileRequest{
		SubmissionID: "sub-1",
		Payload:      dto.SunatPayload{ID: "ext-1", Status: "ACEPTADO", XML: "https://x/1.xml"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", resp.ID)
	assert.Equal(t, "ext-1", s.subs["sub-1"].ExternalID)
	assert.Equal(t, "20131312955-03-B001-45", resp.FileName, "el nombre local no se pisa")
	assert.Len(t, s.subs, 1)
}

func TestReconcile_HandleConOtroIDExterno(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)
	putSubmission(s, "sub-1", "doc-1")
	s.subs["sub-1"].ExternalID = "ext-old"

	_, err := reconcile(t, s, dto.ReconcileRequest{SubmissionID: "sub-1", Payload: dto.SunatPayload{ID: "ext-new"}})
	requireValidation(t, err, "submission_id")
}

// ──────────────────────────────────────────────────────────────────────────────
// Idempotencia y parches parciales
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcile_Idempotente(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)
	in := dto.ReconcileRequest{Payload: dto.SunatPayload{
		ID:        "ext-1",
		Type:      "03",
		Serie:     "B001",
		Numero:    "45",
		Status:    "RECHAZADO",
		Faults:    json.RawMessage(`[{"code":"2017","message":"RUC inválido"}]`),
		IssueTime: &dto.FlexTime{Time: time.Unix(1767225600, 0).UTC()},
	}}

	first, err := reconcile(t, s, in)
	require.NoError(t, err)
	second, err := reconcile(t, s, in)
	require.NoError(t, err)

	assert.Len(t, s.subs, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, entity.SubmissionStatusRejected, second.Status)
	assert.Equal(t, entity.DocumentStatusDraft, s.docs["doc-1"].Status, "un rechazo no emite el comprobante")
}

// reconcile({id, status: ACEPTADO}) y luego reconcile({id, xml}) sin ningún otro dato.
func TestReconcile_ParcheParcialSoloConID(t *testing.T) {
	s := seededStore()

	_, err := reconcile(t, s, dto.ReconcileRequest{Payload: dto.SunatPayload{ID: "ext-x", Status: "ACEPTADO"}})
	require.NoError(t, err)
	resp, err := reconcile(t, s, dto.ReconcileRequest{Payload: dto.SunatPayload{ID: "ext-x", XML: "u"}})
	require.NoError(t, err)

	assert.Equal(t, entity.SubmissionStatusAccepted, resp.Status)
	assert.Equal(t, "u", resp.XMLURL)
	assert.Len(t, s.subs, 1)
}

func TestReconcile_ParcheParcialNoBorraCampos(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)

	_, err := reconcile(t, s, dto.ReconcileRequest{Payload: boletaPayload("ext-1", "ACEPTADO")})
	require.NoError(t, err)

	resp, err := reconcile(t, s, dto.ReconcileRequest{Payload: dto.SunatPayload{ID: "ext-1", XML: "u"}})
	require.NoError(t, err)

	assert.Equal(t, entity.SubmissionStatusAccepted, resp.Status)
	assert.Equal(t, "u", resp.XMLURL)
	assert.Equal(t, "B001", resp.Series)
	assert.Equal(t, "00000045", resp.Number)
	assert.Equal(t, "03", resp.DocumentType)
}

// ──────────────────────────────────────────────────────────────────────────────
// Serie y número: processed_data > payload > fileName
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcile_FallbackDesdeFileName(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)

	resp, err := reconcile(t, s, dto.ReconcileRequest{
		Payload: dto.SunatPayload{ID: "ext-1", FileName: "B001-00000045.xml"},
	})
	require.NoError(t, err)
	assert.Equal(t, "B001", resp.Series)
	assert.Equal(t, "00000045", resp.Number)
	assert.Equal(t, "doc-1", resp.DocumentID, "sin tipo, serie y número únicos ubican el comprobante")
}

func TestReconcile_FallbackDesdeFileNameSinComprobante(t *testing.T) {
	s := seededStore()

	resp, err := reconcile(t, s, dto.ReconcileRequest{
		Payload: dto.SunatPayload{ID: "ext-1", FileName: "B001-00000045.xml"},
	})
	require.NoError(t, err)
	assert.Equal(t, "B001", resp.Series)
	assert.Equal(t, "00000045", resp.Number)
	assert.Empty(t, resp.DocumentID)
}

func TestReconcile_FallbackDesdeFileNameConHandle(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)
	putSubmission(s, "sub-1", "doc-1")

	resp, err := reconcile(t, s, dto.ReconcileRequest{
		SubmissionID: "sub-1",
		Payload:      dto.SunatPayload{ID: "ext-1", FileName: "B001-00000045.xml"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", resp.ID)
	assert.Equal(t, "B001", resp.Series)
	assert.Equal(t, "00000045", resp.Number)
}

func TestReconcile_FileNameCompletoUbicaComprobante(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)

	resp, err := reconcile(t, s, dto.ReconcileRequest{
		Payload: dto.SunatPayload{ID: "ext-1", FileName: "20131312955-03-B001-00000045.zip", Status: "aceptado"},
	})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", resp.DocumentID)
	assert.Equal(t, "03", resp.DocumentType)
	assert.Equal(t, "20131312955-03-B001-00000045.zip", resp.FileName)
	assert.Equal(t, entity.SubmissionStatusAccepted, resp.Status)
}

func TestReconcile_PrecedenciaProcessedData(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)
	putSubmission(s, "sub-1", "doc-1")
	amount := dec("118.00")

	resp, err := reconcile(t, s, dto.ReconcileRequest{
		SubmissionID: "sub-1",
		Payload:      dto.SunatPayload{ID: "ext-1", Serie: "B999", Numero: "1", FileName: "X001-7.xml"},
		Processed:    &dto.ProcessedData{Series: "B001", Number: "00000045", Amount: &amount},
	})
	require.NoError(t, err)
	assert.Equal(t, "B001", resp.Series)
	assert.Equal(t, "00000045", resp.Number)
	require.NotNil(t, resp.Amount)
	assert.True(t, resp.Amount.Equal(amount))

	// Sin processed_data gana el payload sobre el fileName.
	resp, err = reconcile(t, s, dto.ReconcileRequest{Payload: dto.SunatPayload{ID: "ext-1", Numero: "46", FileName: "B001-47.xml"}})
	require.NoError(t, err)
	assert.Equal(t, "46", resp.Number)
}

func TestReconcile_MontoProcesadoSobrescribe(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)
	first, second := dec("100"), dec("118")

	_, err := reconcile(t, s, dto.ReconcileRequest{Payload: boletaPayload("ext-1", ""), Processed: &dto.ProcessedData{Amount: &first}})
	require.NoError(t, err)
	resp, err := reconcile(t, s, dto.ReconcileRequest{Payload: dto.SunatPayload{ID: "ext-1"}, Processed: &dto.ProcessedData{Amount: &second}})
	require.NoError(t, err)
	assert.True(t, resp.Amount.Equal(second))
}

func TestReconcileXML_UsaExtractor(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)
	amount := dec("118")
	engine := newEngine(s, fakeExtractor{data: &dto.ProcessedData{DocumentType: "03", Series: "B001", Number: "45", Amount: &amount}})

	resp, err := engine.ReconcileXML(context.Background(), bizID, dto.SunatPayload{ID: "ext-1", Status: "ACEPTADO"}, []byte("<Invoice/>"))
	require.NoError(t, err)
	assert.Equal(t, "doc-1", resp.DocumentID)
	assert.True(t, resp.Amount.Equal(amount))
}

// ──────────────────────────────────────────────────────────────────────────────
// Máquina de estados
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcile_MapeoDeEstados(t *testing.T) {
	cases := map[string]string{
		"ACEPTADO":  entity.SubmissionStatusAccepted,
		"Rechazado": entity.SubmissionStatusRejected,
		"Excepción": entity.SubmissionStatusException,
		"":          entity.SubmissionStatusPending,
		"UNKNOWN":   entity.SubmissionStatusPending,
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			s := seededStore()
			putDocument(s, "doc-1", boletaID, "03", "B001", 45)
			resp, err := reconcile(t, s, dto.ReconcileRequest{Payload: boletaPayload("ext-1", in)})
			require.NoError(t, err)
			assert.Equal(t, want, resp.Status)
		})
	}
}

func TestReconcile_TerminalNoCambiaDeEstado(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)
	_, err := reconcile(t, s, dto.ReconcileRequest{Payload: boletaPayload("ext-1", "ACEPTADO")})
	require.NoError(t, err)

	_, err = reconcile(t, s, dto.ReconcileRequest{Payload: dto.SunatPayload{ID: "ext-1", Status: "RECHAZADO", XML: "nuevo"}})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, _ := fakeSubRepo{s}.GetByExternalID(context.Background(), "ext-1")
	assert.Equal(t, entity.SubmissionStatusAccepted, stored.Status)
	assert.Empty(t, stored.XMLURL, "un fallo no deja parches parciales")

	// Un estado en curso sobre un terminal se ignora; el resto del parche se aplica.
	resp, err := reconcile(t, s, dto.ReconcileRequest{Payload: dto.SunatPayload{ID: "ext-1", Status: "EN PROCESO", CDR: "c"}})
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionStatusAccepted, resp.Status)
	assert.Equal(t, "c", resp.CDRURL)
}

func TestReconcile_ErrorDeTransporteEsTerminal(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)
	putSubmission(s, "sub-1", "doc-1")
	s.subs["sub-1"].Status = entity.SubmissionStatusError

	_, err := reconcile(t, s, dto.ReconcileRequest{SubmissionID: "sub-1", Payload: dto.SunatPayload{ID: "ext-1", Status: "ACEPTADO"}})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Empty(t, s.subs["sub-1"].ExternalID)
}

// Dos envíos del mismo comprobante no pueden quedar ACCEPTED.
func TestReconcile_UnSoloAceptadoPorComprobante(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)
	putSubmission(s, "sub-1", "doc-1")
	putSubmission(s, "sub-2", "doc-1")

	_, err := reconcile(t, s, dto.ReconcileRequest{SubmissionID: "sub-1", Payload: dto.SunatPayload{ID: "ext-1", Status: "ACEPTADO"}})
	require.NoError(t, err)

	_, err = reconcile(t, s, dto.ReconcileRequest{SubmissionID: "sub-2", Payload: dto.SunatPayload{ID: "ext-2", Status: "ACEPTADO"}})
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
	assert.Equal(t, entity.SubmissionStatusPending, s.subs["sub-2"].Status)
	assert.Empty(t, s.subs["sub-2"].ExternalID, "rollback completo")
	assert.Equal(t, entity.DocumentStatusIssued, s.docs["doc-1"].Status)
}

func TestReconcile_EnvioDeOtraEmpresa(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)
	_, err := reconcile(t, s, dto.ReconcileRequest{Payload: boletaPayload("ext-1", "")})
	require.NoError(t, err)

	_, err = newEngine(s, nil).Reconcile(context.Background(), otherBizID, dto.ReconcileRequest{Payload: dto.SunatPayload{ID: "ext-1", Status: "ACEPTADO"}})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// Dos webhooks con el mismo id: el que pierde la inserción parchea la fila del ganador.
func TestReconcile_CarreraDeInsercion(t *testing.T) {
	s := seededStore()
	putDocument(s, "doc-1", boletaID, "03", "B001", 45)
	s.beforeInsert = func(s *memStore) {
		fakeSubRepo{s}.put(&entity.SunatSubmission{
			ID: "winner", BusinessID: bizID, DocumentID: "doc-1", ExternalID: "ext-1", Status: entity.SubmissionStatusPending,
		})
	}

	resp, err := reconcile(t, s, dto.ReconcileRequest{Payload: boletaPayload("ext-1", "ACEPTADO")})
	require.NoError(t, err)
	assert.Equal(t, "winner", resp.ID)
	assert.Equal(t, entity.SubmissionStatusAccepted, resp.Status)
	assert.Len(t, s.subs, 1)
}
