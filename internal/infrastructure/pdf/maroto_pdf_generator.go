// Package pdf implementa la tarjeta de stock (kardex) de un producto en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Producto + unidad    │  Stock actual + fecha        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Origen | Motivo | Entrada | Salida | Saldo   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Total entradas / salidas / saldo del libro        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
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
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// sourceLabels nombre legible de cada origen.
var sourceLabels = map[entity.MovementSource]string{
	entity.SourcePurchase:            "Compra",
	entity.SourceSale:                "Venta",
	entity.SourceLoss:                "Pérdida",
	entity.SourceDonation:            "Donación",
	entity.SourceInventoryAdjustment: "Ajuste de inventario",
	entity.SourceCustomerReturn:      "Devolución cliente",
}

var _ inventory.KardexGenerator = (*MarotoPDFGenerator)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa inventory.KardexGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	printer *message.Printer
	now     func() time.Time
}

// NewMarotoPDFGenerator construye el generador (números con separador de miles en español).
func NewMarotoPDFGenerator() *MarotoPDFGenerator {
	return &MarotoPDFGenerator{printer: message.NewPrinter(language.Spanish), now: time.Now}
}

// GenerateKardexPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateKardexPDF(
	_ context.Context,
	product *entity.Product,
	lines []inventory.KardexLine,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Kardex "+product.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(product))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	if len(lines) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos registrados", props.Text{
				Size: 8, Align: align.Center, Color: colorGray, Top: 2,
			}),
		)))
	}
	m.AddRows(g.tableDetailRows(lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.summaryRows(product, lines)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar kardex: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: nombre + unidad (izq) y stock actual + fecha de emisión (der).
func (g *MarotoPDFGenerator) headerRow(product *entity.Product) core.Row {
	stockColor := colorPrimary
	if product.BelowThreshold() {
		stockColor = colorAlert
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(product.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Unidad: %s   |   Precio: %s   |   Umbral: %s",
				nonEmpty(product.Unit, "—"),
				g.printer.Sprintf("%.2f", product.PriceUnit.InexactFloat64()),
				g.printer.Sprintf("%d", product.AlertThreshold),
			), props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("TARJETA DE STOCK (KARDEX)", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Stock actual: "+g.printer.Sprintf("%d", product.CurrentStock), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7, Color: stockColor,
			}),
			text.New("Emitido: "+g.now().Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla con fondo azul.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorPrimary}).Add(
		h("Fecha", 2, align.Left),
		h("Origen", 2, align.Left),
		h("Motivo", 3, align.Left),
		h("Entrada", 1, align.Right),
		h("Salida", 2, align.Right),
		h("Saldo", 2, align.Right),
	)
}

// tableDetailRows: una fila por movimiento con el saldo corrido.
func (g *MarotoPDFGenerator) tableDetailRows(lines []inventory.KardexLine) []core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			cell(l.Date.Format("02/01/2006"), 2, align.Left),
			cell(sourceLabel(l.Source), 2, align.Left),
			cell(nonEmpty(l.Reason, "—"), 3, align.Left),
			cell(g.quantity(l.In), 1, align.Right),
			cell(g.quantity(l.Out), 2, align.Right),
			cell(g.printer.Sprintf("%d", l.Balance), 2, align.Right),
		))
	}
	return result
}

// summaryRows: totales de entradas, salidas y saldo según el libro; aviso si no cuadra.
func (g *MarotoPDFGenerator) summaryRows(product *entity.Product, lines []inventory.KardexLine) []core.Row {
	var in, out int64
	for _, l := range lines {
		in += l.In
		out += l.Out
	}
	ledger := in - out
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	rows := []core.Row{row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Total entradas:"),
			label("Total salidas:"),
			label("Saldo del libro:"),
		),
		col.New(3).Add(
			value(g.printer.Sprintf("%d", in)),
			value(g.printer.Sprintf("%d", out)),
			value(g.printer.Sprintf("%d", ledger)),
		),
	)}
	if ledger != product.CurrentStock {
		rows = append(rows, row.New(8).Add(col.New(12).Add(text.New(
			"Descuadre: el stock registrado difiere del libro en "+
				g.printer.Sprintf("%d", product.CurrentStock-ledger),
			props.Text{Style: fontstyle.Bold, Size: 8, Color: colorAlert, Top: 2},
		))))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (g *MarotoPDFGenerator) quantity(n int64) string {
	if n == 0 {
		return ""
	}
	return g.printer.Sprintf("%d", n)
}

func sourceLabel(s entity.MovementSource) string {
	if l, ok := sourceLabels[s]; ok {
		return l
	}
	return string(s)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
