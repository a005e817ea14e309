package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRestyRequiresBaseURL(t *testing.T) {
	_, err := NewResty("  ")
	require.Error(t, err)
}

func TestRestyTransport_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/futures", r.URL.Path)
		assert.Equal(t, "running", r.URL.Query().Get("type"))
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"pid":"p1"}`, string(body))
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1"})
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tr, err := NewResty(server.URL+"/v1/", WithTimeout(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/v1", tr.BaseURL())

	resp, err := tr.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/futures",
		Header: http.Header{"Authorization": []string{"Bearer abc"}},
		Query:  url.Values{"type": []string{"running"}},
		Body:   []byte(`{"pid":"p1"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
}

func TestRestyTransport_NonOKIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"position not found"}`))
	}))
	defer server.Close()

	tr, err := NewResty(server.URL)
	require.NoError(t, err)

	resp, err := tr.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/futures"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "position not found")
}

func TestRestyTransport_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	tr, err := NewResty(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = tr.Do(ctx, Request{Method: http.MethodGet, Path: "/state"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFuncAdapter(t *testing.T) {
	var seen Request
	tr := Func(func(ctx context.Context, req Request) (*Response, error) {
		seen = req
		return &Response{StatusCode: http.StatusOK}, nil
	})
	resp, err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/state"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/state", seen.Path)
}
