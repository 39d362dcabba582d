package render

import (
	"bytes"
	"html/template"
)

// Renderer produces the browser print view of an invoice.
type Renderer interface {
	RenderHTML(doc Document) (string, error)
}

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Number}}</title>
  <style>
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 40px;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      color: #1a1f36;
      background: #f7f9fc;
    }
    .invoice-card {
      background: #ffffff;
      max-width: 800px;
      margin: 0 auto;
      padding: 48px;
      border-radius: 4px;
    }
    .header { display: flex; justify-content: space-between; margin-bottom: 32px; }
    .header h1 { margin: 0; font-size: 28px; letter-spacing: 2px; }
    .header img { max-width: 100px; max-height: 100px; }
    .parties { display: flex; justify-content: space-between; margin-bottom: 32px; }
    .col { flex: 1; }
    .label {
      font-size: 11px;
      text-transform: uppercase;
      color: #8792a2;
      margin-bottom: 6px;
      font-weight: 600;
    }
    .value { font-size: 14px; line-height: 1.5; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
    th {
      text-align: left;
      text-transform: uppercase;
      font-size: 11px;
      color: #8792a2;
      border-bottom: 1px solid #e3e8ee;
      padding: 8px 0;
    }
    td { padding: 12px 0; border-bottom: 1px solid #e3e8ee; font-size: 14px; }
    .num { text-align: right; }
    .totals { display: flex; flex-direction: column; align-items: flex-end; }
    .total-row { display: flex; justify-content: space-between; width: 280px; padding: 4px 0; font-size: 14px; }
    .total-final { border-top: 1px solid #e3e8ee; margin-top: 8px; padding-top: 8px; font-weight: 700; }
    .status { font-size: 12px; font-weight: 700; text-transform: uppercase; color: #8792a2; }
    .footer { margin-top: 48px; font-size: 12px; color: #8792a2; border-top: 1px solid #e3e8ee; padding-top: 16px; }
    @media print { body { background: #ffffff; padding: 0; } .invoice-card { padding: 0; } }
  </style>
</head>
<body>
  <div class="invoice-card">
    <div class="header">
      <div>
        <h1>INVOICE</h1>
        <div class="status">{{.Status}}</div>
      </div>
      {{if .Logo}}<img src="{{.Logo}}" alt="{{.CompanyName}}">{{end}}
    </div>

    <div class="parties">
      <div class="col">
        <div class="label">From</div>
        <div class="value">
          <strong>{{.CompanyName}}</strong><br>
          {{if .YourName}}{{.YourName}}<br>{{end}}
          {{if .TRN}}TRN: {{.TRN}}<br>{{end}}
          {{if .Address}}{{.Address}}<br>{{end}}
          {{if .CityState}}{{.CityState}}{{end}}
        </div>
      </div>
      <div class="col">
        <div class="label">Bill to</div>
        <div class="value">
          <strong>{{.Client.Company}}</strong><br>
          {{.Client.Name}}<br>
          {{if .Client.TRN}}TRN: {{.Client.TRN}}<br>{{end}}
          {{if .Client.Address}}{{.Client.Address}}<br>{{end}}
          {{if .ClientCityLine}}{{.ClientCityLine}}{{end}}
        </div>
      </div>
      <div class="col" style="flex: 0 0 200px;">
        <div class="label">Invoice number</div>
        <div class="value">{{.Number}}</div>
        <div class="label" style="margin-top: 12px;">Invoice date</div>
        <div class="value">{{.InvoiceDate}}</div>
        <div class="label" style="margin-top: 12px;">Due date</div>
        <div class="value">{{.DueDate}}</div>
      </div>
    </div>

    <table>
      <thead>
        <tr>
          <th style="width: 40%;">Item</th>
          <th class="num">Quantity</th>
          <th class="num">Rate</th>
          <th class="num">Discount %</th>
          <th class="num">VAT %</th>
          <th class="num">Total</th>
        </tr>
      </thead>
      <tbody>
        {{range .Rows}}
        <tr>
          <td>{{.Description}}</td>
          <td class="num">{{.Quantity}}</td>
          <td class="num">{{.Rate}}</td>
          <td class="num">{{.Discount}}</td>
          <td class="num">{{.Vat}}</td>
          <td class="num">{{.Total}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="totals">
      <div class="total-row"><span>Sub total</span><span>{{.SubTotal}}</span></div>
      <div class="total-row"><span>Discount</span><span>{{.TotalDiscount}}</span></div>
      <div class="total-row"><span>VAT</span><span>{{.TotalVat}}</span></div>
      <div class="total-row total-final"><span>Total Due</span><span>{{.Total}}</span></div>
      <div class="total-row"><span>Paid</span><span>{{.Paid}}</span></div>
      <div class="total-row total-final"><span>Balance Due</span><span>{{.BalanceDue}}</span></div>
    </div>

    {{if .Footer}}<div class="footer">{{.Footer}}</div>{{end}}
  </div>
</body>
</html>
`

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() Renderer {
	return &HTMLRenderer{
		tpl: template.Must(template.New("invoice").Parse(invoiceHTMLTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(doc Document) (string, error) {
	if doc.CompanyName == "" {
		doc.CompanyName = "Invoice"
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
