// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/order"
)

// Service renders order invoices
type Service struct {
	company CompanyInfo
	now     func() time.Time
	tmpl    *template.Template
}

// NewService creates a new PDF service
func NewService(cfg config.AppConfig, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		company: CompanyInfo{
			Name:    cfg.CompanyName,
			Address: cfg.CompanyAddress,
			Phone:   cfg.CompanyPhone,
			Email:   cfg.CompanyEmail,
			Website: cfg.CompanyWebsite,
		},
		now: clock,
		tmpl: template.Must(template.New("invoice").Funcs(template.FuncMap{
			"money": formatMoney,
			"date":  func(t time.Time) string { return t.Format("January 2, 2006") },
		}).Parse(invoiceTemplate)),
	}
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	InvoiceNumber string       `json:"invoice_number"`
	InvoiceDate   string       `json:"invoice_date"`
	Order         *order.Order `json:"order"`
	Company       CompanyInfo  `json:"company"`
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

// InvoiceData builds the invoice view of an order
func (s *Service) InvoiceData(o *order.Order) InvoiceData {
	return InvoiceData{
		InvoiceNumber: "INV-" + o.OrderNumber,
		InvoiceDate:   s.now().Format("January 2, 2006"),
		Order:         o,
		Company:       s.company,
	}
}

// RenderHTML renders the invoice as an HTML document
func (s *Service) RenderHTML(o *order.Order) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, s.InvoiceData(o)); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateInvoice converts the HTML invoice to PDF with wkhtmltopdf
func (s *Service) GenerateInvoice(o *order.Order) (*bytes.Buffer, error) {
	html, err := s.RenderHTML(o)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

func formatMoney(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(2) + " " + currency
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Invoice {{.InvoiceNumber}}</title>
<style>
  body { font-family: Arial, sans-serif; color: #333; padding: 20px; }
  h1 { margin: 0 0 4px 0; }
  .muted { color: #666; font-size: 12px; }
  .header, .parties { display: flex; justify-content: space-between; margin-bottom: 24px; }
  .title { font-size: 26px; font-weight: bold; color: #2563eb; text-align: right; }
  table { width: 100%; border-collapse: collapse; }
  .items th, .items td { border: 1px solid #ddd; padding: 8px; text-align: left; }
  .items th { background: #f8f9fa; }
  .num { text-align: right; }
  .totals { width: 320px; margin-left: auto; margin-top: 16px; }
  .totals td { padding: 6px; border-bottom: 1px solid #eee; }
  .grand td { font-size: 17px; font-weight: bold; border-top: 2px solid #333; }
</style>
</head>
<body>
<div class="header">
  <div>
    <h1>{{.Company.Name}}</h1>
    {{with .Company.Address}}<div class="muted">{{.}}</div>{{end}}
    {{with .Company.Phone}}<div class="muted">Phone: {{.}}</div>{{end}}
    {{with .Company.Email}}<div class="muted">{{.}}</div>{{end}}
  </div>
  <div>
    <div class="title">INVOICE</div>
    <div>Invoice #: {{.InvoiceNumber}}</div>
    <div>Invoice date: {{.InvoiceDate}}</div>
    <div>Order #: {{.Order.OrderNumber}}</div>
    <div>Order date: {{date .Order.CreatedAt}}</div>
    <div>Payment: {{.Order.PaymentStatus}} ({{.Order.PaymentMethod}})</div>
  </div>
</div>

<div class="parties">
  {{with .Order.BillingAddress}}
  <div>
    <strong>Bill to</strong><br>
    {{.FullName}}<br>
    {{if .Company}}{{.Company}}<br>{{end}}
    {{.AddressLine1}}<br>
    {{if .AddressLine2}}{{.AddressLine2}}<br>{{end}}
    {{.City}}, {{.State}} {{.PostalCode}}<br>
    {{.Country}}
  </div>
  {{end}}
  {{with .Order.ShippingAddress}}
  <div>
    <strong>Ship to</strong><br>
    {{.FullName}}<br>
    {{.AddressLine1}}<br>
    {{if .AddressLine2}}{{.AddressLine2}}<br>{{end}}
    {{.City}}, {{.State}} {{.PostalCode}}<br>
    {{.Country}}
  </div>
  {{end}}
</div>

<table class="items">
  <thead>
    <tr><th>Item</th><th>SKU</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Total</th></tr>
  </thead>
  <tbody>
  {{$currency := .Order.Currency}}
  {{range .Order.Items}}
    <tr>
      <td>{{.Name}}{{if .Brand}}<br><span class="muted">{{.Brand}}</span>{{end}}</td>
      <td>{{.SKU}}</td>
      <td class="num">{{.Quantity}}</td>
      <td class="num">{{money .EffectivePrice $currency}}</td>
      <td class="num">{{money .LineTotal $currency}}</td>
    </tr>
  {{end}}
  </tbody>
</table>

<table class="totals">
  <tr><td>Subtotal</td><td class="num">{{money .Order.Subtotal .Order.Currency}}</td></tr>
  {{if .Order.DiscountAmount.IsPositive}}
  <tr><td>Discount{{with .Order.PromoCode}} ({{.}}){{end}}</td><td class="num">-{{money .Order.DiscountAmount .Order.Currency}}</td></tr>
  {{end}}
  <tr><td>Shipping ({{.Order.ShippingMethodName}})</td><td class="num">{{money .Order.ShippingCost .Order.Currency}}</td></tr>
  <tr><td>Tax ({{.Order.TaxRate.String}}%)</td><td class="num">{{money .Order.TaxAmount .Order.Currency}}</td></tr>
  <tr class="grand"><td>Total</td><td class="num">{{money .Order.TotalAmount .Order.Currency}}</td></tr>
</table>

<p class="muted">Questions about this invoice? Contact {{.Company.Email}}.</p>
</body>
</html>
`
