// Package api is a thin HTTP client for the cloudservice API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/cloudservice/internal/common"
)

// ErrUnavailable is returned when the server cannot be reached.
var ErrUnavailable = errors.New("server unavailable")

// FileInfo is one entry of GET /list.
type FileInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// File is the result of a download.
type File struct {
	Filename string
	Hash     string
	Content  []byte
}

// Error is a non-2xx response. It unwraps to the matching common sentinel.
type Error struct {
	Status  int
	Message string
	ID      int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s (id %d)", e.Status, e.Message, e.ID)
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case http.StatusBadRequest:
		return common.ErrorValidation
	case http.StatusNotFound:
		return common.ErrorNotFound
	default:
		return common.ErrorInternal
	}
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Token() string     { return c.token }
func (c *Client) SetToken(t string) { c.token = t }

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set(common.AuthTokenHeaderName, common.AuthTokenHeaderPrefix+c.token)
	}
	return req, nil
}

// do sends req and converts non-2xx answers into *Error. The caller closes
// the body of a successful response.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body struct {
		Message string `json:"message"`
		ID      int    `json:"id"`
	}
	if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Message != "" {
		apiErr.Message, apiErr.ID = body.Message, body.ID
	}
	return nil, apiErr
}

func (c *Client) doDiscard(req *http.Request) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Login stores the returned token in c.
func (c *Client) Login(ctx context.Context, login, password string) error {
	b, err := json.Marshal(map[string]string{"login": login, "password": password})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/login", nil, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out struct {
		AuthToken string `json:"auth-token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("error decoding login response: %w", err)
	}
	c.token = out.AuthToken
	return nil
}

// Logout revokes the current token and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/logout", nil, nil)
	if err != nil {
		return err
	}
	if err := c.doDiscard(req); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *Client) Upload(ctx context.Context, filename string, content io.Reader, hash string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if hash != "" {
		if err := mw.WriteField("hash", hash); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/file", url.Values{"filename": {filename}}, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.doDiscard(req)
}

func (c *Client) Delete(ctx context.Context, filename string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/file", url.Values{"filename": {filename}}, nil)
	if err != nil {
		return err
	}
	return c.doDiscard(req)
}

func (c *Client) Rename(ctx context.Context, oldName, newName string) error {
	b, err := json.Marshal(map[string]string{"filename": newName})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPut, "/file", url.Values{"filename": {oldName}}, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doDiscard(req)
}

func (c *Client) Download(ctx context.Context, filename string) (*File, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/file", url.Values{"filename": {filename}}, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("error parsing content type: %w", err)
	}

	f := &File{Filename: filename}
	mr := multipart.NewReader(resp.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading multipart body: %w", err)
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, err
		}
		switch part.FormName() {
		case "hash":
			f.Hash = string(data)
		case "file":
			f.Content = data
			if n := part.FileName(); n != "" {
				f.Filename = n
			}
		}
	}
	return f, nil
}

func (c *Client) List(ctx context.Context, limit int) ([]FileInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/list", url.Values{"limit": {strconv.Itoa(limit)}}, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out []FileInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("error decoding list: %w", err)
	}
	return out, nil
}
