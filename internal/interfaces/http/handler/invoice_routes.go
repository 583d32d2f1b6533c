package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/interfaces/http/router"
)

// InvoiceRoutes creates the route group for invoice endpoints. renderLimit,
// when not nil, guards the two endpoints that draw PDFs.
func InvoiceRoutes(handler *InvoiceHandler, renderLimit gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("invoices", "/invoices")

	render := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if renderLimit == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{renderLimit, h}
	}

	// Stateless calculation and rendering
	group.POST("/totals", handler.Totals)
	group.POST("/pdf", render(handler.RenderPDF)...)

	// Stored invoices
	group.POST("", handler.Save)
	group.GET("", handler.List)
	group.GET("/:number", handler.Get)
	group.GET("/:number/pdf", render(handler.RenderStored)...)

	return group
}
