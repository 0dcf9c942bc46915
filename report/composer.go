package report

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/invoices"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/quotations"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

// QuotationSource loads quotations for rendering.
type QuotationSource interface {
	Get(ctx context.Context, id int64) (*quotations.Quotation, error)
}

// InvoiceSource loads invoices for rendering.
type InvoiceSource interface {
	Get(ctx context.Context, id int64) (*invoices.Invoice, error)
}

// Composer builds the printable HTML for commercial documents.
type Composer struct {
	quotations QuotationSource
	invoices   InvoiceSource
}

func NewComposer(quotSrc QuotationSource, invSrc InvoiceSource) *Composer {
	return &Composer{quotations: quotSrc, invoices: invSrc}
}

// Compose renders the document identified by type and id into HTML.
func (c *Composer) Compose(ctx context.Context, document string, documentID int64) (string, error) {
	switch shared.DocumentType(document) {
	case shared.DocQuotation:
		q, err := c.quotations.Get(ctx, documentID)
		if err != nil {
			return "", fmt.Errorf("load quotation: %w", err)
		}
		return c.composeQuotation(q)
	case shared.DocInvoice:
		inv, err := c.invoices.Get(ctx, documentID)
		if err != nil {
			return "", fmt.Errorf("load invoice: %w", err)
		}
		return c.composeInvoice(inv)
	default:
		return "", fmt.Errorf("report: no template for document type %q", document)
	}
}

var quotationTmpl = template.Must(template.New("quotation").Parse(`<html>
<head><title>Cotizacion {{.Code}}</title></head>
<body>
<h1>Cotizacion {{.Code}}</h1>
<p>{{.Description}}</p>
<p>Valida hasta: {{.ValidUntil.Format "2006-01-02"}}</p>
<table border="1" cellspacing="0" cellpadding="4">
<tr><th>Descripcion</th><th>Cantidad</th><th>Precio</th><th>Total</th></tr>
{{range .Items}}<tr><td>{{.Description}}</td><td>{{.Quantity}}</td><td>{{printf "%.2f" .UnitPrice}}</td><td>{{printf "%.2f" .LineTotal}}</td></tr>
{{end}}
</table>
<p>Subtotal: {{printf "%.2f" .Subtotal}}<br>IVA (19%): {{printf "%.2f" .Tax}}<br>Total: {{printf "%.2f" .Total}}</p>
</body></html>`))

var invoiceTmpl = template.Must(template.New("invoice").Parse(`<html>
<head><title>Factura {{.Code}}</title></head>
<body>
<h1>Factura {{.Code}}</h1>
<p>Cliente: {{.ClientName}}<br>Negocio: {{.DealCode}}<br>Vence: {{.DueDate.Format "2006-01-02"}}</p>
<table border="1" cellspacing="0" cellpadding="4">
<tr><th>Descripcion</th><th>Cantidad</th><th>Precio</th><th>Total</th></tr>
{{range .Lines}}<tr><td>{{.Description}}</td><td>{{.Quantity}}</td><td>{{printf "%.2f" .UnitPrice}}</td><td>{{printf "%.2f" .LineTotal}}</td></tr>
{{end}}
</table>
<p>Subtotal: {{printf "%.2f" .Subtotal}}<br>IVA (19%): {{printf "%.2f" .Tax}}<br>Total: {{printf "%.2f" .Total}}<br>Anticipo: {{printf "%.2f" .Advance}}<br>Saldo: {{printf "%.2f" .AmountDue}}</p>
</body></html>`))

func (c *Composer) composeQuotation(q *quotations.Quotation) (string, error) {
	var sb strings.Builder
	if err := quotationTmpl.Execute(&sb, q); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (c *Composer) composeInvoice(inv *invoices.Invoice) (string, error) {
	var sb strings.Builder
	if err := invoiceTmpl.Execute(&sb, inv); err != nil {
		return "", err
	}
	return sb.String(), nil
}
