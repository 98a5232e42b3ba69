package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"

	"example.com/photofeed/internal/logger"
	"example.com/photofeed/internal/models"
)

const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerUserAgent     = "User-Agent"
	contentTypeJSON     = "application/json"
	clientUserAgent     = "photofeed-go/1.0.0"
)

var logg = logger.New()

// request describes one API call.
type request struct {
	method      string
	path        string
	auth        bool
	body        io.Reader
	contentType string
}

func (r request) op() string { return r.method + " " + r.path }

// do performs the request and decodes a 2xx JSON body into result.
func (c *Client) do(ctx context.Context, r request, result any) error {
	reqURL, err := url.JoinPath(c.baseURL, r.path)
	if err != nil {
		return &NetworkError{Op: r.op(), Err: fmt.Errorf("failed to build URL: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, r.body)
	if err != nil {
		return &NetworkError{Op: r.op(), Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set(headerUserAgent, clientUserAgent)
	req.Header.Set(headerContentType, contentTypeJSON)
	if r.contentType != "" {
		req.Header.Set(headerContentType, r.contentType)
	}
	if r.auth {
		tok, ok := "", false
		if c.tokens != nil {
			tok, ok = c.tokens.Token(ctx)
		}
		if !ok {
			return &AuthError{Message: "not logged in"}
		}
		req.Header.Set(headerAuthorization, "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logg.Error("api", "Request failed: "+r.op(), err)
		return &NetworkError{Op: r.op(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: r.op(), StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		nerr := &NetworkError{Op: r.op(), StatusCode: resp.StatusCode, Message: serverMessage(respBody)}
		logg.Error("api", "Unexpected response status", nerr)
		return nerr
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &DecodeError{Op: r.op(), Err: err}
		}
	}
	return nil
}

// get performs an authenticated GET request.
func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, auth: true}, result)
}

// postJSON performs a POST request with a JSON body.
func (c *Client) postJSON(ctx context.Context, path string, auth bool, body any, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	return c.do(ctx, request{method: http.MethodPost, path: path, auth: auth, body: reader}, result)
}

// --- Multipart helpers ---

// formPart is a text field or, when image is set, a file field.
type formPart struct {
	name  string
	value string
	image *models.ImageFile
}

// multipartBody encodes parts into a multipart/form-data body.
func multipartBody(parts []formPart) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range parts {
		if p.image == nil {
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, "", err
			}
			continue
		}
		if err := writeImagePart(w, p.name, *p.image); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeImagePart(w *multipart.Writer, field string, img models.ImageFile) error {
	f, err := os.Open(img.Path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	name := img.Name
	if name == "" {
		name = filepath.Base(img.Path)
	}
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	h.Set(headerContentType, mimeType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
