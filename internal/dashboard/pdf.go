package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// PDFExporter wraps Gotenberg interactions for receipt PDF generation.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// NewPDFExporter creates a PDFExporter. An empty endpoint disables PDF output.
func NewPDFExporter(endpoint string, client *http.Client) *PDFExporter {
	if strings.TrimSpace(endpoint) == "" {
		return nil
	}
	return &PDFExporter{Endpoint: endpoint, Client: client}
}

// RenderReceipt sends the receipt HTML to Gotenberg and returns the PDF bytes.
func (p *PDFExporter) RenderReceipt(ctx context.Context, r Receipt) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialized")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	html, err := RenderHTML(r)
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(html); err != nil {
		return nil, err
	}
	// A5 portrait, half-inch margins.
	fields := [][2]string{
		{"paperWidth", "5.83"},
		{"paperHeight", "8.27"},
		{"marginTop", "0.5"},
		{"marginBottom", "0.5"},
		{"marginLeft", "0.5"},
		{"marginRight", "0.5"},
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}
	return io.ReadAll(resp.Body)
}
