package lnmarkets

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"lnmarkets-api/pkg/transport"
)

type reply struct {
	status int
	body   string
	header http.Header
	err    error
}

// spyTransport records every request and answers from a queue. Once the
// queue is drained it answers 200 "{}".
type spyTransport struct {
	mu      sync.Mutex
	calls   []transport.Request
	replies []reply
}

func newSpy(replies ...reply) *spyTransport {
	return &spyTransport{replies: replies}
}

func (s *spyTransport) Do(_ context.Context, req transport.Request) (*transport.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := len(s.calls)
	s.calls = append(s.calls, req)
	if idx >= len(s.replies) {
		return &transport.Response{StatusCode: http.StatusOK, Body: []byte("{}")}, nil
	}
	r := s.replies[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &transport.Response{StatusCode: r.status, Header: r.header, Body: []byte(r.body)}, nil
}

func (s *spyTransport) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *spyTransport) call(t *testing.T, i int) transport.Request {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Greater(t, len(s.calls), i, "expected call %d", i)
	return s.calls[i]
}

func ok(body string) reply {
	return reply{status: http.StatusOK, body: body}
}

func newTestClient(t *testing.T, tr transport.Transport, opts ...ClientOption) *Client {
	t.Helper()
	client, err := NewClient(false, append([]ClientOption{WithTransport(tr)}, opts...)...)
	require.NoError(t, err)
	return client
}

var testToken = NewBearerToken("test-token")
