// Package printing turns a computed invoice into an A4 PDF.
//
// Drawing goes through the Surface interface with the origin at the bottom
// left of the page, y growing upwards. PDFSurface adapts gofpdf to it and
// recordingSurface (tests only) captures draw calls for assertions.
//
// PageFlow hands out vertical bands top to bottom and opens a new page when
// a band does not fit above the bottom margin. DocumentComposer lays the
// invoice out section by section on top of it:
//
//	composer := printing.NewDocumentComposer(printing.DefaultFontSet())
//	totals, err := invoice.ComputeTotals(data, invoice.BaseHourlyRate())
//	if err != nil {
//	    return err
//	}
//	pdf, err := composer.Compose(data, totals)
//
// FileSystemStorage archives rendered files under {yyyy}/{mm}/{filename}.
package printing
