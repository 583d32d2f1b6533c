package printing

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/locale"
	"github.com/shopspring/decimal"
)

// SurfaceFactory creates the drawing backend for one document
type SurfaceFactory func(layout Layout, fonts FontSet, info DocumentInfo) (Surface, error)

// ComposerOption configures a DocumentComposer
type ComposerOption func(*DocumentComposer)

// WithLayout overrides the page geometry
func WithLayout(layout Layout) ComposerOption {
	return func(c *DocumentComposer) {
		c.layout = layout
	}
}

// WithCompression toggles stream compression in the PDF output
func WithCompression(compress bool) ComposerOption {
	return func(c *DocumentComposer) {
		c.compress = compress
	}
}

// WithRepeatedTableHeader redraws the table header at the top of every
// continuation page. Off by default: continuation pages start bare.
func WithRepeatedTableHeader(repeat bool) ComposerOption {
	return func(c *DocumentComposer) {
		c.repeatHeader = repeat
	}
}

// WithSurfaceFactory replaces the PDF backend
func WithSurfaceFactory(f SurfaceFactory) ComposerOption {
	return func(c *DocumentComposer) {
		c.newSurface = f
	}
}

// WithCreator sets the PDF creator field
func WithCreator(creator string) ComposerOption {
	return func(c *DocumentComposer) {
		c.creator = creator
	}
}

// DocumentComposer lays out an invoice on A4 pages. It is safe for
// concurrent use: all per-document state lives in a draft.
type DocumentComposer struct {
	fonts        FontSet
	layout       Layout
	compress     bool
	repeatHeader bool
	creator      string
	newSurface   SurfaceFactory
	fingerprint  string
}

var (
	_ DocumentRenderer = (*DocumentComposer)(nil)
	_ Fingerprinter    = (*DocumentComposer)(nil)
)

// NewDocumentComposer creates a composer drawing with the given fonts
func NewDocumentComposer(fonts FontSet, opts ...ComposerOption) *DocumentComposer {
	c := &DocumentComposer{
		fonts:    fonts,
		layout:   DefaultLayout(),
		compress: true,
		creator:  "invoicer",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.newSurface == nil {
		compress := c.compress
		c.newSurface = func(layout Layout, fonts FontSet, info DocumentInfo) (Surface, error) {
			return NewPDFSurface(layout, fonts, info, compress)
		}
	}
	c.fingerprint = c.settingsHash()
	return c
}

// Fingerprint identifies the settings that shape the output: fonts, layout,
// compression, header repetition and creator
func (c *DocumentComposer) Fingerprint() string {
	return c.fingerprint
}

func (c *DocumentComposer) settingsHash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%+v|%t|%t|%s|", c.fonts.Family(), c.layout, c.compress, c.repeatHeader, c.creator)
	h.Write(c.fonts.regular)
	h.Write([]byte{0})
	h.Write(c.fonts.bold)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// NewDocumentComposerFromConfig builds a composer from the invoice settings.
// TrueType fonts are embedded only when both font paths are set.
func NewDocumentComposerFromConfig(cfg config.InvoiceConfig) (*DocumentComposer, error) {
	fonts := DefaultFontSet()
	if cfg.RegularFontPath != "" && cfg.BoldFontPath != "" {
		loaded, err := LoadFontSet(cfg.RegularFontPath, cfg.BoldFontPath)
		if err != nil {
			return nil, err
		}
		fonts = loaded
	}
	opts := []ComposerOption{
		WithCompression(cfg.Compress),
		WithRepeatedTableHeader(cfg.RepeatTableHeader),
	}
	if cfg.Creator != "" {
		opts = append(opts, WithCreator(cfg.Creator))
	}
	return NewDocumentComposer(fonts, opts...), nil
}

// Compose renders the invoice. Rows are laid out top to bottom and a new page
// is started whenever a row would cross the bottom margin.
func (c *DocumentComposer) Compose(data invoice.InvoiceData, totals invoice.Totals) ([]byte, error) {
	if err := data.CheckAmounts(); err != nil {
		return nil, err
	}

	surface, err := c.newSurface(c.layout, c.fonts, DocumentInfo{
		Title:   "Invoice " + data.Number,
		Author:  data.Payer.Name,
		Subject: data.ProjectName,
		Creator: c.creator,
		Created: data.Date,
	})
	if err != nil {
		return nil, err
	}
	flow, err := NewPageFlow(surface, c.layout)
	if err != nil {
		return nil, err
	}

	d := &draft{
		surface:      surface,
		fonts:        c.fonts,
		flow:         flow,
		layout:       c.layout,
		repeatHeader: c.repeatHeader,
		data:         data,
		totals:       totals,
		currency:     totals.Currency,
	}
	if d.currency == "" {
		d.currency = data.CurrencyOrDefault()
	}

	steps := []func() error{
		d.banner,
		d.project,
		d.addresses,
		d.table,
		d.summary,
		d.payment,
		d.notes,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := surface.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Table column anchors
const (
	colDescription = 55.0
	colQuantity    = 350.0
	colRate        = 455.0
	colBillTo      = 320.0
	colSummaryText = 330.0
	cellPadding    = 6.0
)

var (
	styleBody      = TextStyle{Weight: Regular, Size: 10, Color: ColorText}
	styleBodyBold  = TextStyle{Weight: Bold, Size: 10, Color: ColorText}
	styleLabel     = TextStyle{Weight: Bold, Size: 9, Color: ColorMuted}
	styleHeading   = TextStyle{Weight: Bold, Size: 11, Color: ColorText}
	styleProject   = TextStyle{Weight: Bold, Size: 13, Color: ColorText}
	styleTitle     = TextStyle{Weight: Bold, Size: 26, Color: ColorLight}
	styleBannerSub = TextStyle{Weight: Regular, Size: 11, Color: ColorBannerSub}
	styleTotal     = TextStyle{Weight: Bold, Size: 12, Color: ColorLight}
)

// draft is the state of one document being composed
type draft struct {
	surface      Surface
	fonts        FontSet
	flow         *PageFlow
	text         TextRenderer
	layout       Layout
	repeatHeader bool
	data         invoice.InvoiceData
	totals       invoice.Totals
	currency     valueobject.Currency
}

// money falls back to the ISO code when the faces have no glyph for the
// symbol, e.g. ₹ with the built-in Helvetica
func (d *draft) money(amount decimal.Decimal) string {
	formatted := locale.FormatCurrency(amount, d.currency)
	if !d.fonts.CanEncode(formatted) {
		return locale.FormatCurrencyCode(amount, d.currency)
	}
	return formatted
}

func (d *draft) write(text string, x, y float64, style TextStyle) error {
	return d.text.Draw(d.surface, d.flow.Page(), text, x, y, style)
}

func (d *draft) writeRight(text string, rightX, y float64, style TextStyle) error {
	return d.text.DrawRight(d.surface, d.flow.Page(), text, rightX, y, style)
}

// line reserves one line of height h and writes text on it
func (d *draft) line(text string, x, h float64, style TextStyle) error {
	y, err := d.flow.Reserve(h)
	if err != nil {
		return err
	}
	return d.write(text, x, y, style)
}

func (d *draft) gap(h float64) error {
	_, err := d.flow.Reserve(h)
	return err
}

func (d *draft) banner() error {
	l := d.layout
	top := l.PageHeight
	if err := d.surface.SetPage(d.flow.Page()); err != nil {
		return err
	}
	if err := d.surface.FillRect(0, top-l.BannerHeight, l.PageWidth, l.BannerHeight, ColorBanner); err != nil {
		return err
	}
	if err := d.write("INVOICE", l.MarginLeft, top-50, styleTitle); err != nil {
		return err
	}
	if err := d.write("Invoice No: "+d.data.Number, l.MarginLeft, top-75, styleBannerSub); err != nil {
		return err
	}
	if err := d.write("Date: "+locale.FormatDateLong(d.data.Date), l.MarginLeft, top-92, styleBannerSub); err != nil {
		return err
	}
	return d.gap(l.BannerHeight - l.TopMargin + 30)
}

func (d *draft) project() error {
	if strings.TrimSpace(d.data.ProjectName) == "" {
		return nil
	}
	if err := d.line("Project: "+d.data.ProjectName, d.layout.MarginLeft, 18, styleProject); err != nil {
		return err
	}
	return d.gap(12)
}

func (d *draft) addresses() error {
	lh := d.layout.LineHeight

	left := []textLine{{"BILL FROM", styleLabel}, {d.data.Payer.Name, styleBodyBold}}
	if d.data.Payer.Email != "" {
		left = append(left, textLine{d.data.Payer.Email, styleBody})
	}
	left = append(left, addressLines(d.data.Payer.Address)...)
	if d.data.Payer.DateOfBirth != nil {
		left = append(left, textLine{"Date of Birth: " + locale.FormatDateShort(*d.data.Payer.DateOfBirth), styleBody})
	}

	right := []textLine{{"BILL TO", styleLabel}, {d.data.Client.Name, styleBodyBold}}
	right = append(right, addressLines(d.data.Client.Address)...)
	if d.data.Client.AttentionTo != "" {
		right = append(right, textLine{"Attention To: " + d.data.Client.AttentionTo, styleBody})
	}

	start := d.flow.Mark()
	for _, tl := range left {
		if err := d.line(tl.text, d.layout.MarginLeft, lh, tl.style); err != nil {
			return err
		}
	}
	leftEnd := d.flow.Mark()

	d.flow.Restore(start)
	for _, tl := range right {
		if err := d.line(tl.text, colBillTo, lh, tl.style); err != nil {
			return err
		}
	}
	rightEnd := d.flow.Mark()

	d.flow.Restore(Lowest(leftEnd, rightEnd))
	return d.gap(25)
}

type textLine struct {
	text  string
	style TextStyle
}

// addressLines splits on explicit line breaks only
func addressLines(address string) []textLine {
	var out []textLine
	for _, l := range strings.Split(address, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, textLine{l, styleBody})
		}
	}
	return out
}

type tableRow struct {
	description string
	quantity    string
	rate        string
	amount      string
}

func (d *draft) rows() ([]tableRow, error) {
	var rows []tableRow
	for _, it := range d.data.Items {
		if it.Quantity <= 0 {
			continue
		}
		rows = append(rows, tableRow{
			description: it.Description,
			quantity:    strconv.Itoa(it.Quantity),
			rate:        d.money(decimal.NewFromFloat(it.UnitPrice)),
			amount:      d.money(it.EffectiveCost()),
		})
	}
	for _, oe := range d.data.OvertimeEntries {
		rate, err := oe.HourlyRate(invoice.BaseHourlyRate())
		if err != nil {
			return nil, err
		}
		cost, err := oe.Cost(invoice.BaseHourlyRate())
		if err != nil {
			return nil, err
		}
		rows = append(rows, tableRow{
			description: fmt.Sprintf("Overtime %s - %s", oe.RateType, locale.FormatDateShort(oe.Date)),
			quantity:    strconv.FormatFloat(oe.Hours, 'f', -1, 64),
			rate:        d.money(rate),
			amount:      d.money(cost),
		})
	}
	for _, ce := range d.data.CustomExpenseEntries {
		rows = append(rows, tableRow{
			description: ce.Description,
			quantity:    strconv.Itoa(ce.Quantity),
			rate:        d.money(decimal.NewFromFloat(ce.UnitPrice)),
			amount:      d.money(decimal.NewFromFloat(ce.Cost)),
		})
	}
	return rows, nil
}

func (d *draft) tableHeader() error {
	l := d.layout
	y, err := d.flow.Reserve(l.RowHeight)
	if err != nil {
		return err
	}
	if err := d.surface.SetPage(d.flow.Page()); err != nil {
		return err
	}
	if err := d.surface.FillRect(l.MarginLeft, y, l.ContentWidth(), l.RowHeight, ColorHeaderFill); err != nil {
		return err
	}
	return d.drawRow(tableRow{"DESCRIPTION", "QTY", "RATE", "AMOUNT"}, y, styleBodyBold)
}

func (d *draft) drawRow(r tableRow, y float64, style TextStyle) error {
	base := y + cellPadding
	if err := d.write(r.description, colDescription, base, style); err != nil {
		return err
	}
	if err := d.writeRight(r.quantity, colQuantity, base, style); err != nil {
		return err
	}
	if err := d.writeRight(r.rate, colRate, base, style); err != nil {
		return err
	}
	return d.writeRight(r.amount, d.layout.RightX()-cellPadding, base, style)
}

func (d *draft) table() error {
	rows, err := d.rows()
	if err != nil {
		return err
	}
	if err := d.tableHeader(); err != nil {
		return err
	}
	for _, r := range rows {
		if d.repeatHeader && !d.flow.Fits(d.layout.RowHeight) {
			if err := d.flow.Break(); err != nil {
				return err
			}
			if err := d.tableHeader(); err != nil {
				return err
			}
		}
		y, err := d.flow.Reserve(d.layout.RowHeight)
		if err != nil {
			return err
		}
		if err := d.drawRow(r, y, styleBody); err != nil {
			return err
		}
	}
	return nil
}

func (d *draft) summary() error {
	l := d.layout
	y, err := d.flow.Reserve(14)
	if err != nil {
		return err
	}
	if err := d.surface.SetPage(d.flow.Page()); err != nil {
		return err
	}
	if err := d.surface.Line(l.MarginLeft, y+7, l.RightX(), y+7, 0.8, ColorRule); err != nil {
		return err
	}

	subtotals := []struct {
		label  string
		amount valueobject.Money
	}{
		{"Items Subtotal:", d.totals.ItemsTotal},
		{"Overtime Subtotal:", d.totals.OvertimeTotal},
		{"Expenses Subtotal:", d.totals.CustomExpensesTotal},
	}
	for _, st := range subtotals {
		if st.amount.IsZero() {
			continue
		}
		y, err := d.flow.Reserve(18)
		if err != nil {
			return err
		}
		if err := d.write(st.label, colSummaryText, y, styleBody); err != nil {
			return err
		}
		if err := d.writeRight(d.money(st.amount.Amount()), l.RightX()-cellPadding, y, styleBody); err != nil {
			return err
		}
	}

	if err := d.gap(6); err != nil {
		return err
	}
	y, err = d.flow.Reserve(26)
	if err != nil {
		return err
	}
	if err := d.surface.SetPage(d.flow.Page()); err != nil {
		return err
	}
	if err := d.surface.FillRect(colSummaryText-10, y, l.RightX()-colSummaryText+10, 26, ColorBanner); err != nil {
		return err
	}
	if err := d.write("TOTAL", colSummaryText, y+8, styleTotal); err != nil {
		return err
	}
	return d.writeRight(d.money(d.totals.TotalAmount.Amount()), l.RightX()-cellPadding, y+8, styleTotal)
}

func (d *draft) payment() error {
	lh := d.layout.LineHeight
	x := d.layout.MarginLeft
	if err := d.gap(25); err != nil {
		return err
	}
	if err := d.line("PAYMENT DETAILS", x, 18, styleHeading); err != nil {
		return err
	}

	b := d.data.Bank
	lines := []string{"IBAN: " + b.IBAN, "SWIFT/BIC: " + b.SwiftBIC}
	if b.AccountNumber != "" {
		lines = append(lines, "Account Number: "+b.AccountNumber)
	}
	if b.SortCode != "" {
		lines = append(lines, "Sort Code: "+b.SortCode)
	}
	if b.BankAddress != "" {
		lines = append(lines, "Bank Address: "+strings.Join(strings.Fields(b.BankAddress), " "))
	}
	for _, text := range lines {
		if err := d.line(text, x, lh, styleBody); err != nil {
			return err
		}
	}
	return nil
}

func (d *draft) notes() error {
	notes := strings.Join(strings.Fields(d.data.Notes), " ")
	if notes == "" {
		return nil
	}
	if err := d.gap(20); err != nil {
		return err
	}
	if err := d.line("NOTES", d.layout.MarginLeft, 18, styleHeading); err != nil {
		return err
	}
	return d.line(notes, d.layout.MarginLeft, d.layout.LineHeight, styleBody)
}
