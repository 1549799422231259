// Package oic is a client for the Oracle Integration Cloud REST API.
//
// The package covers the two workflows oictl needs: paginated extraction of
// inventory metadata (connections and integrations) and bulk import of
// integration archives. Extraction runs an offset/limit sweep that can
// alternate between the per-instance host and the shared design host, since
// deployments have been observed serving the same resource from either host
// depending on platform version. Import uploads each archive with a
// create-then-replace conflict resolution.
//
// All operations are sequential with fixed per-call timeouts and no retry;
// failure policy is decided by the caller (see Pager and Importer).
package oic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"time"

	"github.com/oictools/oictl/pkg/errors"
)

const (
	fetchTimeout  = 10 * time.Second
	uploadTimeout = 30 * time.Second

	// maxErrorBody caps how much of an error response body is kept for diagnostics.
	maxErrorBody = 2048
)

// LogFunc receives diagnostic messages from long-running operations.
// A nil LogFunc disables diagnostics.
type LogFunc func(format string, args ...any)

// StatusError is returned when a request completes with a non-2xx terminal
// status. It carries the HTTP status and a truncated response body.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client issues authenticated requests against OIC hosts.
// The header set is fixed at construction and read-only afterwards; the
// client is safe for sequential reuse across sweeps and uploads.
type Client struct {
	noRedirect *http.Client // GETs, redirects disabled for manual 307 handling
	follow     *http.Client // single-hop redirect target requests
	upload     *http.Client // multipart uploads, longer timeout
	headers    map[string]string
}

// NewClient creates a Client authenticated with the given bearer token.
func NewClient(token string) *Client {
	return &Client{
		noRedirect: &http.Client{
			Timeout: fetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		follow: &http.Client{Timeout: fetchTimeout},
		upload: &http.Client{Timeout: uploadTimeout},
		headers: map[string]string{
			"Authorization": "Bearer " + token,
			"Accept":        "application/json",
		},
	}
}

// Fetch performs a GET request and JSON-decodes the response into v.
//
// Redirects are not followed automatically. A 307 response is resolved
// manually by issuing exactly one follow-up GET to the Location header;
// the follow-up is not guarded against further redirects, bounding the
// request count at two. Any non-2xx final status yields a *StatusError.
// There is no retry on network failure.
func (c *Client) Fetch(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeFetch, err, "decode response from %s", url)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := c.doGet(ctx, c.noRedirect, url)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTemporaryRedirect {
		loc := resp.Header.Get("Location")
		resp.Body.Close()
		if loc == "" {
			return nil, errors.New(errors.ErrCodeFetch, "307 response from %s missing Location header", url)
		}
		resp, err = c.doGet(ctx, c.follow, loc)
		if err != nil {
			return nil, err
		}
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) doGet(ctx context.Context, hc *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request for %s", url)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", url)
	}
	return resp, nil
}

// UploadPackage uploads an integration archive as a multipart request with
// the given method (POST for create, PUT for replace) and returns the
// terminal HTTP status code. The multipart payload carries the file under
// the "file" field with an application/octet-stream content type plus a
// literal "type" field, matching the import endpoint's contract.
//
// The status code is returned for any completed request, including error
// statuses; an error is returned only when the request itself fails
// (unreadable file, network failure, timeout).
func (c *Client) UploadPackage(ctx context.Context, method, url, path string) (int, error) {
	payload, contentType, err := packagePayload(path)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "build upload request for %s", url)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.upload.Do(req)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, url)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused for the next package.
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func packagePayload(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidPath, err, "open package %s", path)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	hdr.Set("Content-Type", "application/octet-stream")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "build multipart payload")
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidPath, err, "read package %s", path)
	}
	if err := mw.WriteField("type", "application/octet-stream"); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "build multipart payload")
	}
	if err := mw.Close(); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "build multipart payload")
	}
	return &buf, mw.FormDataContentType(), nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
}
