// Package pdf implementa la representación impresa de comprobantes electrónicos SUNAT
// (factura, boleta, nota de crédito y nota de débito).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + RUC  │  Tipo + SERIE-NÚMERO + Fecha │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ADQUIRIENTE: Nombre + doc. identidad + dirección           │
//	│  CONDICIONES: Moneda / Forma de pago / Vencimiento          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | Afect. | Importe      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Op. gravada / IGV / IMPORTE TOTAL                 │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER SUNAT: QR + enlaces XML/CDR + leyenda               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	appbilling "github.com/sisfac/sisfac-api/internal/application/billing"
	"github.com/sisfac/sisfac-api/internal/domain/entity"
)

var _ appbilling.DocumentPDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 178, Green: 34, Blue: 34}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.DocumentPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateDocumentPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateDocumentPDF(_ context.Context, data appbilling.DocumentPDFData) ([]byte, error) {
	if data.Document == nil || data.Business == nil || data.Party == nil {
		return nil, fmt.Errorf("pdf: faltan comprobante, empresa o adquiriente")
	}
	doc := data.Document
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(documentTitle(data.TypeName)+" "+documentNumber(doc), true).
		WithAuthor(data.Business.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partyRow(data.Party))
	m.AddRows(conditionsRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(doc.Currency, data.Items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(doc))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range sunatFooterRows(data) {
		m.AddRows(r)
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: razón social + RUC (izq) y tipo + SERIE-NÚMERO + fecha (der).
func headerRow(data appbilling.DocumentPDFData) core.Row {
	doc := data.Document
	return row.New(18).Add(
		col.New(7).Add(
			text.New(data.Business.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("RUC: "+data.Business.RUC, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(strings.ToUpper(documentTitle(data.TypeName))+" ELECTRÓNICA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(documentNumber(doc), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha de emisión: "+doc.IssueDate.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// partyRow: datos del adquiriente (o proveedor en compras).
func partyRow(party *entity.Party) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("ADQUIRIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(party.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("%s: %s   |   Dirección: %s",
				identityLabel(party.DocType),
				party.DocNumber,
				nonEmpty(party.Address, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// conditionsRow: moneda, forma de pago y vencimiento.
func conditionsRow(doc *entity.SunatDocument) core.Row {
	terms := "Contado"
	if doc.PaymentTerm == "CREDIT" {
		terms = "Crédito"
	}
	due := "-"
	if doc.DueDate != nil {
		due = doc.DueDate.Format("02/01/2006")
	}
	detail := fmt.Sprintf("Moneda: %s   |   Forma de pago: %s   |   Vencimiento: %s", doc.Currency, terms, due)
	if doc.ExchangeRate != nil {
		detail += "   |   T.C.: " + doc.ExchangeRate.StringFixed(4)
	}
	return row.New(8).Add(col.New(12).Add(
		text.New(detail, props.Text{Size: 8, Top: 2, Color: colorGray}),
	))
}

// tableHeaderRow: cabecera de la tabla de detalles.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("Valor Unit.", 2, align.Right),
		h("Afect.", 1, align.Center),
		h("Importe", 3, align.Right),
	)
}

// tableDetailRows: una fila por línea del comprobante.
func tableDetailRows(currency string, items []*entity.SunatDocumentItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				it.Quantity.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				it.Description,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				money(currency, it.UnitPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				it.TaxAffectation,
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(3).Add(text.New(
				money(currency, it.LineTotal),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(doc *entity.SunatDocument) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			label("Op. gravada:"),
			label("IGV:"),
			grandLabel("IMPORTE TOTAL:"),
		),
		col.New(3).Add(
			value(money(doc.Currency, doc.TotalTaxable)),
			value(money(doc.Currency, doc.TotalIGV)),
			grandValue(money(doc.Currency, doc.Total)),
		),
		col.New(3),
	)
}

// sunatFooterRows: QR + enlaces del envío aceptado + leyenda.
func sunatFooterRows(data appbilling.DocumentPDFData) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("INFORMACIÓN SUNAT", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}

	if acc := data.Accepted; acc != nil {
		for _, link := range []struct{ label, url string }{{"XML", acc.XMLURL}, {"CDR", acc.CDRURL}} {
			if link.url == "" {
				continue
			}
			rows = append(rows, row.New(4).Add(col.New(12).Add(
				text.New(link.label+": "+link.url, props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}),
			)))
		}
	}

	rows = append(rows, row.New(3))
	rows = append(rows, row.New(40).Add(
		col.New(3).Add(code.NewQr(qrContent(data), props.Rect{
			Percent: 95,
			Center:  true,
		})),
		col.New(9).Add(
			text.New("Representación impresa de la "+documentTitle(data.TypeName)+" electrónica.", props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 4, Left: 3, Color: colorPrimary,
			}),
			text.New("Consulte su validez en www.sunat.gob.pe", props.Text{
				Size: 8, Top: 12, Left: 3, Color: colorGray,
			}),
		),
	))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

// qrContent formato SUNAT: RUC|TIPO|SERIE|NÚMERO|IGV|TOTAL|FECHA|TIPO DOC ADQ|NÚM DOC ADQ|
func qrContent(data appbilling.DocumentPDFData) string {
	doc := data.Document
	return strings.Join([]string{
		data.Business.RUC,
		doc.DocumentTypeCode,
		doc.Series,
		strconv.FormatInt(doc.Number, 10),
		doc.TotalIGV.StringFixed(2),
		doc.Total.StringFixed(2),
		doc.IssueDate.Format("2006-01-02"),
		data.Party.DocType,
		data.Party.DocNumber,
	}, "|") + "|"
}

func documentTitle(typeName string) string {
	return nonEmpty(typeName, "Comprobante")
}

func documentNumber(doc *entity.SunatDocument) string {
	return fmt.Sprintf("%s-%08d", doc.Series, doc.Number)
}

// identityLabel catálogo 06.
func identityLabel(docType string) string {
	switch docType {
	case "1":
		return "DNI"
	case "4":
		return "CE"
	case "6":
		return "RUC"
	case "7":
		return "Pasaporte"
	}
	return "Doc."
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func money(currency string, d decimal.Decimal) string {
	symbol := "S/"
	if currency == "USD" {
		symbol = "US$"
	}
	return symbol + " " + formatMoney(d.StringFixed(2))
}

// formatMoney inserta comas de miles en un importe con dos decimales.
// Ej: "25000.50" → "25,000.50", "-1000000.00" → "-1,000,000.00"
func formatMoney(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + frac
}
