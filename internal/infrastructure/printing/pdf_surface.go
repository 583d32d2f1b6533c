package printing

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
)

// DocumentInfo is the metadata written into the PDF info dictionary
type DocumentInfo struct {
	Title   string
	Author  string
	Subject string
	Creator string
	// Created pins the creation and modification dates so output is reproducible
	Created time.Time
}

// PDFSurface draws on a gofpdf document. gofpdf measures y from the top of
// the page, so every y is flipped on the way in.
type PDFSurface struct {
	pdf        *gofpdf.Fpdf
	fonts      FontSet
	pageHeight float64
}

var _ Surface = (*PDFSurface)(nil)

// NewPDFSurface creates an empty document with the given geometry and fonts
func NewPDFSurface(layout Layout, fonts FontSet, info DocumentInfo, compress bool) (*PDFSurface, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: layout.PageWidth, Ht: layout.PageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCompression(compress)
	pdf.SetCatalogSort(true)

	created := info.Created
	if created.IsZero() {
		created = time.Unix(0, 0).UTC()
	}
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.SetTitle(info.Title, true)
	pdf.SetAuthor(info.Author, true)
	pdf.SetSubject(info.Subject, true)
	pdf.SetCreator(info.Creator, true)

	s := &PDFSurface{
		pdf:        pdf,
		fonts:      fonts,
		pageHeight: layout.PageHeight,
	}
	if fonts.Embedded() {
		pdf.AddUTF8FontFromBytes(fonts.Family(), Regular.style(), fonts.regular)
		pdf.AddUTF8FontFromBytes(fonts.Family(), Bold.style(), fonts.bold)
	}
	if err := s.check("failed to initialise document"); err != nil {
		return nil, err
	}
	return s, nil
}

// AddPage appends a page and returns its number
func (s *PDFSurface) AddPage() (int, error) {
	// gofpdf appends after the selected page, so select the last one first
	if n := s.pdf.PageCount(); n > 0 && s.pdf.PageNo() != n {
		s.pdf.SetPage(n)
	}
	s.pdf.AddPage()
	if err := s.check("failed to add page"); err != nil {
		return 0, err
	}
	return s.pdf.PageNo(), nil
}

// SetPage selects an existing page
func (s *PDFSurface) SetPage(page int) error {
	if page < 1 || page > s.pdf.PageCount() {
		return NewRenderError(ErrCodeRenderFailed, fmt.Sprintf("page %d does not exist", page), nil)
	}
	if s.pdf.PageNo() != page {
		s.pdf.SetPage(page)
	}
	return s.check("failed to select page")
}

// Text draws text with its baseline at y
func (s *PDFSurface) Text(x, y float64, text string, style TextStyle) error {
	encoded, err := s.fonts.Encode(text)
	if err != nil {
		return err
	}
	s.applyFont(style)
	s.pdf.SetTextColor(style.Color.R, style.Color.G, style.Color.B)
	s.pdf.Text(x, s.pageHeight-y, encoded)
	return s.check("failed to draw text")
}

// TextWidth measures text in the given style
func (s *PDFSurface) TextWidth(text string, style TextStyle) float64 {
	s.applyFont(style)
	return s.pdf.GetStringWidth(s.fonts.encodeLossy(text))
}

// FillRect fills the rectangle whose lower-left corner is (x, y)
func (s *PDFSurface) FillRect(x, y, w, h float64, color Color) error {
	s.pdf.SetFillColor(color.R, color.G, color.B)
	s.pdf.Rect(x, s.pageHeight-y-h, w, h, "F")
	return s.check("failed to fill rectangle")
}

// Line strokes a straight line
func (s *PDFSurface) Line(x1, y1, x2, y2, width float64, color Color) error {
	s.pdf.SetDrawColor(color.R, color.G, color.B)
	s.pdf.SetLineWidth(width)
	s.pdf.Line(x1, s.pageHeight-y1, x2, s.pageHeight-y2)
	return s.check("failed to draw line")
}

// PageCount is the number of pages added so far
func (s *PDFSurface) PageCount() int {
	return s.pdf.PageCount()
}

// Output encodes the finished document
func (s *PDFSurface) Output(w io.Writer) error {
	if err := s.check("document is in an error state"); err != nil {
		return err
	}
	if err := s.pdf.Output(w); err != nil {
		return NewRenderError(ErrCodeEncodingFailed, "failed to encode PDF", err)
	}
	return nil
}

func (s *PDFSurface) applyFont(style TextStyle) {
	s.pdf.SetFont(s.fonts.Family(), style.Weight.style(), style.Size)
}

func (s *PDFSurface) check(message string) error {
	if s.pdf.Err() {
		return NewRenderError(ErrCodeRenderFailed, message, s.pdf.Error())
	}
	return nil
}
