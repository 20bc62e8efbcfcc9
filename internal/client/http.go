package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/alfredjeanlab/campus/internal/model"
)

// HTTPClient implements CampusClient using the campus HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:3001").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// BaseURL returns the server URL the client targets.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Inquiries ---

func (c *HTTPClient) CreateInquiry(ctx context.Context, req *InquiryRequest) (*model.Inquiry, error) {
	var inq model.Inquiry
	if err := c.doJSON(ctx, http.MethodPost, "/api/inquiries", req, &inq); err != nil {
		return nil, err
	}
	return &inq, nil
}

func (c *HTTPClient) GetInquiry(ctx context.Context, id string) (*model.Inquiry, error) {
	var inq model.Inquiry
	if err := c.doJSON(ctx, http.MethodGet, "/api/inquiries/"+url.PathEscape(id), nil, &inq); err != nil {
		return nil, err
	}
	return &inq, nil
}

func (c *HTTPClient) ListInquiries(ctx context.Context) ([]model.Inquiry, error) {
	var list []model.Inquiry
	if err := c.doJSON(ctx, http.MethodGet, "/api/inquiries", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// --- Announcements ---

func (c *HTTPClient) CreateAnnouncement(ctx context.Context, req *AnnouncementRequest) (*model.Announcement, error) {
	fields := map[string]string{
		"title":       req.Title,
		"date":        req.Date,
		"description": req.Description,
	}
	if req.ClientToken != "" {
		fields["clientToken"] = req.ClientToken
	}
	var a model.Announcement
	if err := c.doMultipart(ctx, http.MethodPost, "/api/announcements", fields, req.Image, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *HTTPClient) GetAnnouncement(ctx context.Context, id string) (*model.Announcement, error) {
	var a model.Announcement
	if err := c.doJSON(ctx, http.MethodGet, "/api/announcements/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *HTTPClient) ListAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	var list []model.Announcement
	if err := c.doJSON(ctx, http.MethodGet, "/api/announcements", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) UpdateAnnouncement(ctx context.Context, id string, req *AnnouncementUpdate) (*model.Announcement, error) {
	fields := map[string]string{}
	setIf(fields, "title", req.Title)
	setIf(fields, "date", req.Date)
	setIf(fields, "description", req.Description)
	if req.ClientToken != "" {
		fields["clientToken"] = req.ClientToken
	}
	var a model.Announcement
	if err := c.doMultipart(ctx, http.MethodPut, "/api/announcements/"+url.PathEscape(id), fields, req.Image, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *HTTPClient) DeleteAnnouncement(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/announcements/"+url.PathEscape(id), nil, nil)
}

// --- Schools ---

func (c *HTTPClient) CreateSchool(ctx context.Context, req *SchoolRequest) (*model.School, error) {
	fields := map[string]string{"name": req.Name}
	if req.ClientToken != "" {
		fields["clientToken"] = req.ClientToken
	}
	var s model.School
	if err := c.doMultipart(ctx, http.MethodPost, "/api/schools", fields, req.Image, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) GetSchool(ctx context.Context, id string) (*model.School, error) {
	var s model.School
	if err := c.doJSON(ctx, http.MethodGet, "/api/schools/"+url.PathEscape(id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) ListSchools(ctx context.Context) ([]model.School, error) {
	var list []model.School
	if err := c.doJSON(ctx, http.MethodGet, "/api/schools", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) UpdateSchool(ctx context.Context, id string, req *SchoolUpdate) (*model.School, error) {
	fields := map[string]string{}
	setIf(fields, "name", req.Name)
	if req.ClientToken != "" {
		fields["clientToken"] = req.ClientToken
	}
	var s model.School
	if err := c.doMultipart(ctx, http.MethodPut, "/api/schools/"+url.PathEscape(id), fields, req.Image, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) DeleteSchool(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/schools/"+url.PathEscape(id), nil, nil)
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	var resp HealthResponse
	if err := c.do(req, func(body []byte) error { return json.Unmarshal(body, &resp) }); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- helpers ---

func setIf(fields map[string]string, key string, v *string) {
	if v != nil {
		fields[key] = *v
	}
}

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
	// Fields holds per-field validation messages on 400 responses.
	Fields map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, strings.Join(parts, ", "))
}

// envelope is the shape of every /api response.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// doJSON performs an HTTP request with optional JSON body and decodes the
// data field of the response into result. If result is nil, the data is
// discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, dataInto(result))
}

// doMultipart sends fields and an optional image as multipart/form-data and
// decodes the data field of the response into result.
func (c *HTTPClient) doMultipart(ctx context.Context, method, path string, fields map[string]string, img *Image, result any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return fmt.Errorf("writing field %s: %w", k, err)
		}
	}
	if img != nil {
		fw, err := mw.CreateFormFile("image", img.Filename)
		if err != nil {
			return fmt.Errorf("attaching image: %w", err)
		}
		if _, err := fw.Write(img.Data); err != nil {
			return fmt.Errorf("attaching image: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, dataInto(result))
}

func dataInto(result any) func([]byte) error {
	return func(body []byte) error {
		if result == nil {
			return nil
		}
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		if len(env.Data) == 0 {
			return fmt.Errorf("decoding response: missing data")
		}
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
		return nil
	}
}

func (c *HTTPClient) do(req *http.Request, decode func([]byte) error) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp envelope
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Message != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Message, Fields: errResp.Errors}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return decode(respBody)
}
