// Package pdf genera la tarjeta de kardex de una materia prima en PDF.
//
// Layout de la página A4 horizontal:
//
//	┌──────────────────────────────────────────────────────────────────────┐
//	│  HEADER: Materia prima + unidad  │  Rango de fechas                  │
//	│  ──────────────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Mov. | Referencia | Lote | Cant. | C.Unit | Total | Saldo │
//	│  ──────────────────────────────────────────────────────────────────  │
//	│  RESUMEN: saldo inicial / entradas / salidas / saldo final          │
//	└──────────────────────────────────────────────────────────────────────┘
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
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	appkardex "github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorEntry   = &props.Color{Red: 20, Green: 110, Blue: 40}
	colorExit    = &props.Color{Red: 160, Green: 30, Blue: 30}
)

// KardexPDFGenerator dibuja la tarjeta de kardex con Maroto v2.
type KardexPDFGenerator struct {
	printer *message.Printer
}

// NewKardexPDFGenerator construye el generador con formato numérico en español.
func NewKardexPDFGenerator() *KardexPDFGenerator {
	return &KardexPDFGenerator{printer: message.NewPrinter(language.Spanish)}
}

// GenerateStockCardPDF genera el PDF y devuelve sus bytes.
func (g *KardexPDFGenerator) GenerateStockCardPDF(_ context.Context, card *appkardex.StockCard) ([]byte, error) {
	if card == nil || card.Material == nil {
		return nil, fmt.Errorf("pdf: tarjeta sin materia prima")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Kardex "+card.Material.Name, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(g.headerRow(card))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	m.AddRows(g.openingRow(card))
	for _, r := range g.lineRows(card.Lines) {
		m.AddRows(r)
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.summaryRow(card))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func (g *KardexPDFGenerator) headerRow(card *appkardex.StockCard) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New("TARJETA DE KARDEX (FIFO)", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(card.Material.Name, props.Text{Style: fontstyle.Bold, Size: 13, Top: 6}),
		),
		col.New(5).Add(
			text.New("Unidad: "+card.Material.BaseUnit, props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New("Periodo: "+period(card.From, card.To), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Mov.", 1, align.Center),
		h("Referencia", 2, align.Left),
		h("Lote", 1, align.Center),
		h("Cantidad", 1, align.Right),
		h("Costo unit.", 2, align.Right),
		h("Costo total", 2, align.Right),
		h("Saldo", 1, align.Right),
	)
}

func (g *KardexPDFGenerator) openingRow(card *appkardex.StockCard) core.Row {
	return row.New(6).Add(
		col.New(11).Add(text.New("Saldo inicial", props.Text{Style: fontstyle.Italic, Size: 8, Top: 1, Color: colorGray})),
		col.New(1).Add(text.New(g.qty(card.Opening), props.Text{Size: 8, Align: align.Right, Top: 1})),
	)
}

func (g *KardexPDFGenerator) lineRows(lines []appkardex.StockCardLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		e := l.Entry
		dir, color := "E", colorEntry
		if e.Direction == entity.DirectionExit {
			dir, color = "S", colorExit
		}
		cell := func(s string, size int, a align.Type) core.Col {
			return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1}))
		}
		result = append(result, row.New(6).Add(
			cell(e.CreatedAt.Format("02/01/2006 15:04"), 2, align.Left),
			col.New(1).Add(text.New(dir, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 1, Color: color})),
			cell(e.Reference.String(), 2, align.Left),
			cell(fmt.Sprintf("%d", e.LotID), 1, align.Center),
			cell(g.qty(e.Quantity), 1, align.Right),
			cell(g.money(e.UnitCost), 2, align.Right),
			cell(g.money(e.TotalCost()), 2, align.Right),
			cell(g.qty(l.Balance), 1, align.Right),
		))
	}
	return result
}

func (g *KardexPDFGenerator) summaryRow(card *appkardex.StockCard) core.Row {
	entries, exits := decimal.Zero, decimal.Zero
	for _, l := range card.Lines {
		if l.Entry.Direction == entity.DirectionExit {
			exits = exits.Add(l.Entry.Quantity)
		} else {
			entries = entries.Add(l.Entry.Quantity)
		}
	}
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(24).Add(
		col.New(6),
		col.New(3).Add(
			label("Saldo inicial:"),
			label("Entradas:"),
			label("Salidas:"),
			label("Saldo final:"),
		),
		col.New(3).Add(
			value(g.qty(card.Opening)),
			value(g.qty(entries)),
			value(g.qty(exits)),
			value(g.qty(card.Closing)),
		),
	)
}

// qty cantidades con separadores de miles y hasta 4 decimales.
func (g *KardexPDFGenerator) qty(d decimal.Decimal) string {
	f, _ := d.Round(4).Float64()
	return g.printer.Sprintf("%.4f", f)
}

// money montos con dos decimales.
func (g *KardexPDFGenerator) money(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return "$" + g.printer.Sprintf("%.2f", f)
}

func period(from, to *time.Time) string {
	const layout = "02/01/2006"
	switch {
	case from != nil && to != nil:
		return from.Format(layout) + " a " + to.Format(layout)
	case from != nil:
		return "desde " + from.Format(layout)
	case to != nil:
		return "hasta " + to.Format(layout)
	}
	return "histórico completo"
}
