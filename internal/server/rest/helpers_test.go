package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/dmitrijs2005/cloudservice/internal/dbx"
	"github.com/dmitrijs2005/cloudservice/internal/logging"
	"github.com/dmitrijs2005/cloudservice/internal/server/auth"
	blobmemory "github.com/dmitrijs2005/cloudservice/internal/server/blobstore/memory"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cloudservice/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var publicPaths = []string{"/login", "/logout", "/metrics"}

type testServer struct {
	*httptest.Server
	rm    *repomanager.MemoryRepositoryManager
	blobs *blobmemory.Store
	users *services.UserService
	reg   *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithFiles(t, nil)
}

// newTestServerWithFiles builds the full stack over memory storage. A non-nil
// fs replaces the real file service.
func newTestServerWithFiles(t *testing.T, fs FileService) *testServer {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	blobs := blobmemory.New()
	l := logging.Nop{}

	tokens := services.NewTokenService(dbx.NopTransactor{}, rm, time.Hour, l)
	users := services.NewUserService(dbx.NopTransactor{}, rm, tokens, l)
	if fs == nil {
		fs = services.NewFileService(dbx.NopTransactor{}, rm, blobs, l)
	}

	reg := prometheus.NewRegistry()
	gate := auth.NewGate(tokens, "", "", publicPaths, ErrorWriter(l), l)
	h := NewHandler(users, fs, gate, 1<<20, l)

	srv := httptest.NewServer(NewRouter(h, gate, NewMetrics(reg), reg, l))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, rm: rm, blobs: blobs, users: users, reg: reg}
}

func (s *testServer) addUser(t *testing.T, name, password string) {
	t.Helper()
	_, err := s.users.Register(context.Background(), name, []byte(password))
	require.NoError(t, err)
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set(common.AuthTokenHeaderName, common.AuthTokenHeaderPrefix+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *testServer) login(t *testing.T, login, password string) *http.Response {
	t.Helper()
	b, err := json.Marshal(LoginRequest{Login: login, Password: password})
	require.NoError(t, err)
	return s.do(t, http.MethodPost, "/login", "", bytes.NewReader(b), "application/json")
}

func (s *testServer) mustLogin(t *testing.T, login, password string) string {
	t.Helper()
	resp := s.login(t, login, password)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.AuthToken)
	return out.AuthToken
}

func (s *testServer) upload(t *testing.T, token, filename string, content []byte, hash string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if hash != "" {
		require.NoError(t, mw.WriteField("hash", hash))
	}
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return s.do(t, http.MethodPost, "/file?filename="+url.QueryEscape(filename), token, &buf, mw.FormDataContentType())
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}
