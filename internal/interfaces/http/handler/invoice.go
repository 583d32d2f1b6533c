package handler

import (
	"context"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/logger"
)

// Response headers set on rendered PDFs
const (
	HeaderInvoiceTotal    = "X-Invoice-Total"
	HeaderInvoiceCurrency = "X-Invoice-Currency"
	HeaderCache           = "X-Cache"
)

// InvoiceHandler handles invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *invoicing.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *invoicing.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// Totals computes the totals of an invoice without rendering it
//
//	POST /invoices/totals
func (h *InvoiceHandler) Totals(c *gin.Context) {
	var req invoicing.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	totals, err := h.invoiceService.Totals(withInvoiceNumber(c, req.Number), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, totals)
}

// RenderPDF renders the posted invoice and returns the PDF as an attachment
//
//	POST /invoices/pdf
func (h *InvoiceHandler) RenderPDF(c *gin.Context) {
	var req invoicing.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	rendered, err := h.invoiceService.Render(withInvoiceNumber(c, req.Number), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.writePDF(c, rendered)
}

// Save validates, totals and stores an invoice keyed by its number.
// Answers 201 for a new number and 200 when an existing invoice was replaced.
//
//	POST /invoices
func (h *InvoiceHandler) Save(c *gin.Context) {
	var req invoicing.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	saved, created, err := h.invoiceService.Save(withInvoiceNumber(c, req.Number), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if created {
		h.Created(c, saved)
		return
	}
	h.Success(c, saved)
}

// List returns a page of stored invoices, newest first
//
//	GET /invoices?page=1&page_size=20
func (h *InvoiceHandler) List(c *gin.Context) {
	var req invoicing.ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.invoiceService.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get returns a stored invoice with its totals
//
//	GET /invoices/:number
func (h *InvoiceHandler) Get(c *gin.Context) {
	number := c.Param("number")

	inv, err := h.invoiceService.Get(withInvoiceNumber(c, number), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inv)
}

// RenderStored renders a stored invoice
//
//	GET /invoices/:number/pdf
func (h *InvoiceHandler) RenderStored(c *gin.Context) {
	number := c.Param("number")

	rendered, err := h.invoiceService.RenderStored(withInvoiceNumber(c, number), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.writePDF(c, rendered)
}

func (h *InvoiceHandler) writePDF(c *gin.Context, rendered *invoicing.RenderedInvoice) {
	c.Header("Content-Disposition", contentDisposition(rendered.Filename))
	c.Header(HeaderInvoiceTotal, rendered.Totals.TotalAmount.StringFixed())
	c.Header(HeaderInvoiceCurrency, string(rendered.Totals.Currency))
	if rendered.Cached {
		c.Header(HeaderCache, "HIT")
	} else {
		c.Header(HeaderCache, "MISS")
	}
	c.Data(http.StatusOK, "application/pdf", rendered.Content)
}

// contentDisposition builds an attachment header. Non-ASCII names are sent
// in the RFC 2231 filename* form.
func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	// FormatMediaType refuses names it cannot encode
	return `attachment; filename="` + strings.NewReplacer(`"`, "", `\`, "").Replace(filename) + `"`
}

// withInvoiceNumber tags the request context so every log line carries the invoice number
func withInvoiceNumber(c *gin.Context, number string) context.Context {
	ctx := c.Request.Context()
	if number = strings.TrimSpace(number); number == "" {
		return ctx
	}
	return context.WithValue(ctx, logger.InvoiceNumberKey, number)
}
