package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajxudir/ripen/pkg/cmdexec"
	"github.com/ajxudir/ripen/pkg/config"
	"github.com/ajxudir/ripen/pkg/errors"
	"github.com/ajxudir/ripen/pkg/versioning"
)

// stubExecute replaces cmdexec.Execute for the duration of a test.
func stubExecute(t *testing.T, fn cmdexec.ExecuteFunc) {
	t.Helper()
	original := cmdexec.Execute
	cmdexec.Execute = fn
	t.Cleanup(func() { cmdexec.Execute = original })
}

func httpConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.Registry.Source = config.SourceHTTP
	cfg.Registry.URL = url
	cfg.Registry.RetryMax = 1
	cfg.Registry.TokenEnv = "RIPEN_TEST_TOKEN"
	return cfg
}

// TestLookup tests the tri-state Lookup constructors.
func TestLookup(t *testing.T) {
	ok := Available(versioning.Timestamps{"1.0.0": "2020-01-01T00:00:00Z"})
	assert.True(t, ok.Available())
	assert.Empty(t, ok.Reason)

	missing := Unavailable("registry returned 404 Not Found")
	assert.False(t, missing.Available())
	assert.Nil(t, missing.Timestamps)

	assert.False(t, Lookup{}.Available())
}

// TestNew tests source selection by registry.source.
func TestNew(t *testing.T) {
	cfg := config.Default()
	src, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &CommandSource{}, src)

	src, err = New(httpConfig("https://registry.example.com/"))
	require.NoError(t, err)
	require.IsType(t, &HTTPSource{}, src)
	assert.Equal(t, "https://registry.example.com/@types%2Fnode", src.(*HTTPSource).packageURL("@types/node"))

	cfg.Registry.Source = "yarn"
	_, err = New(cfg)
	assert.Error(t, err)

	_, err = New(httpConfig("not a url"))
	assert.Error(t, err)
}

// TestCommandSource tests the behavior of CommandSource.VersionTimestamps.
//
// It verifies:
//   - The package name and timeout reach the command runner
//   - A version object becomes an available lookup without bookkeeping keys
//   - A failing command is unavailable, with stderr as the reason
//   - An empty object is unavailable
//   - A JSON array is a fatal MalformedResponseError
func TestCommandSource(t *testing.T) {
	cfg := config.Default()
	cfg.Registry.TimeoutSeconds = 7
	src := NewCommandSource(cfg)

	t.Run("available", func(t *testing.T) {
		var got cmdexec.Request
		stubExecute(t, func(_ context.Context, req cmdexec.Request) ([]byte, error) {
			got = req
			return []byte(`{"created":"2019-01-01T00:00:00Z","1.0.0":"2019-01-01T00:00:00Z"}`), nil
		})

		lookup, err := src.VersionTimestamps(context.Background(), "@scope/pkg")
		require.NoError(t, err)
		assert.True(t, lookup.Available())
		assert.Equal(t, versioning.Timestamps{"1.0.0": "2019-01-01T00:00:00Z"}, lookup.Timestamps)
		assert.Equal(t, "@scope/pkg", got.Replacements["package"])
		assert.Equal(t, 7, got.TimeoutSeconds)
		assert.Equal(t, "npm view {{package}} time --json", got.Command)
	})

	t.Run("command failure", func(t *testing.T) {
		stubExecute(t, func(_ context.Context, req cmdexec.Request) ([]byte, error) {
			return []byte(`{"error":{"code":"E404"}}`), &cmdexec.CommandError{ExitCode: 1, Stderr: "npm ERR! code E404\nnpm ERR! 404 Not Found", Err: assert.AnError}
		})

		lookup, err := src.VersionTimestamps(context.Background(), "missing")
		require.NoError(t, err)
		assert.False(t, lookup.Available())
		assert.Equal(t, "npm ERR! code E404", lookup.Reason)
	})

	t.Run("timeout", func(t *testing.T) {
		stubExecute(t, func(_ context.Context, req cmdexec.Request) ([]byte, error) {
			return nil, cmdexec.ErrTimeout
		})

		lookup, err := src.VersionTimestamps(context.Background(), "slow")
		require.NoError(t, err)
		assert.Equal(t, "command timed out", lookup.Reason)
	})

	t.Run("empty object", func(t *testing.T) {
		stubExecute(t, func(_ context.Context, req cmdexec.Request) ([]byte, error) {
			return []byte(`{"modified":"2020-01-01T00:00:00Z"}`), nil
		})

		lookup, err := src.VersionTimestamps(context.Background(), "bare")
		require.NoError(t, err)
		assert.False(t, lookup.Available())
	})

	t.Run("malformed", func(t *testing.T) {
		stubExecute(t, func(_ context.Context, req cmdexec.Request) ([]byte, error) {
			return []byte(`["1.0.0"]`), nil
		})

		_, err := src.VersionTimestamps(context.Background(), "weird")
		assert.True(t, errors.IsMalformedResponse(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		stubExecute(t, func(ctx context.Context, req cmdexec.Request) ([]byte, error) {
			return nil, ctx.Err()
		})

		_, err := src.VersionTimestamps(ctx, "any")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// TestHTTPSource tests the behavior of HTTPSource.VersionTimestamps.
//
// It verifies:
//   - Scoped names are requested with an escaped slash
//   - The bearer token is sent when the token variable is set
//   - The time member is decoded
//   - 404 and exhausted 5xx retries are unavailable
//   - A non-object document is a fatal MalformedResponseError
func TestHTTPSource(t *testing.T) {
	t.Setenv("RIPEN_TEST_TOKEN", "secret")
	var serverErrors atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.EscapedPath() {
		case "/@types%2Fnode":
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"name":"@types/node","time":{"created":"2016-01-01T00:00:00Z","20.1.0":"2023-05-01T00:00:00Z"}}`))
		case "/no-time":
			_, _ = w.Write([]byte(`{"name":"no-time"}`))
		case "/array":
			_, _ = w.Write([]byte(`[]`))
		case "/flaky":
			serverErrors.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := httpConfig(server.URL)
	src, err := NewHTTPSource(cfg)
	require.NoError(t, err)
	src.client.RetryWaitMin = 0
	src.client.RetryWaitMax = 0

	ctx := context.Background()

	lookup, err := src.VersionTimestamps(ctx, "@types/node")
	require.NoError(t, err)
	require.True(t, lookup.Available())
	assert.Equal(t, versioning.Timestamps{"20.1.0": "2023-05-01T00:00:00Z"}, lookup.Timestamps)

	lookup, err = src.VersionTimestamps(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, lookup.Available())
	assert.Contains(t, lookup.Reason, "404")

	lookup, err = src.VersionTimestamps(ctx, "no-time")
	require.NoError(t, err)
	assert.False(t, lookup.Available())

	lookup, err = src.VersionTimestamps(ctx, "flaky")
	require.NoError(t, err)
	assert.False(t, lookup.Available())
	assert.Contains(t, lookup.Reason, "502")
	assert.Equal(t, int32(2), serverErrors.Load())

	_, err = src.VersionTimestamps(ctx, "array")
	assert.True(t, errors.IsMalformedResponse(err))
}

// TestHTTPSourceTransportFailure tests that an unreachable registry is
// reported as unavailable rather than as an error.
func TestHTTPSourceTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	cfg := httpConfig(url)
	cfg.Registry.RetryMax = 0
	src, err := NewHTTPSource(cfg)
	require.NoError(t, err)

	lookup, err := src.VersionTimestamps(context.Background(), "left-pad")
	require.NoError(t, err)
	assert.False(t, lookup.Available())
	assert.NotEmpty(t, lookup.Reason)
}

// TestFormatKV tests the retry logger's key/value rendering.
func TestFormatKV(t *testing.T) {
	assert.Equal(t, " url=http://x retry=2", formatKV([]interface{}{"url", "http://x", "retry", 2, "dangling"}))
	assert.Empty(t, formatKV(nil))
}
