package lnmarkets

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/dnaeon/go-vcr/recorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// This test uses go-vcr to record/replay real public state and history calls.
// It skips by default if cassette is absent and RECORD_CASSETTES != 1.
func TestClient_Snapshot_Recorded(t *testing.T) {
	cassette := filepath.Join("testdata", "cassettes", "lnmarkets_public")
	if _, err := os.Stat(cassette + ".yaml"); os.IsNotExist(err) {
		if os.Getenv("RECORD_CASSETTES") != "1" {
			t.Skipf("cassette missing; set RECORD_CASSETTES=1 to record: %s.yaml", cassette)
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(cassette), 0o755))
	}

	r, err := recorder.New(cassette)
	require.NoError(t, err, "recorder.New should not error")
	defer func() { _ = r.Stop() }()

	provider, err := NewProvider(WithClientOptions(WithHTTPClient(&http.Client{Transport: r})))
	require.NoError(t, err)

	ctx := context.Background()
	status, err := provider.Status(ctx)
	require.NoError(t, err)
	assert.NotNil(t, status.Raw)

	snap, err := provider.Snapshot(ctx, Symbol)
	require.NoError(t, err)
	assert.True(t, snap.Index.IsPositive(), "index should be positive")
	assert.True(t, snap.Offer.GreaterThanOrEqual(snap.Bid), "offer should not be below bid")
}
