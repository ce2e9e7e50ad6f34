package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ajxudir/ripen/pkg/config"
	"github.com/ajxudir/ripen/pkg/formats"
	"github.com/ajxudir/ripen/pkg/verbose"
)

// maxDocumentSize caps registry documents; packuments of long-lived packages
// run to tens of megabytes.
const maxDocumentSize = 128 << 20

const (
	retryWaitMin = 250 * time.Millisecond
	retryWaitMax = 3 * time.Second
)

// HTTPSource reads the "time" member of the registry document served at
// <url>/<name>.
type HTTPSource struct {
	client  *retryablehttp.Client
	baseURL string
	token   string
}

// NewHTTPSource creates an HTTPSource from the registry settings.
//
// It performs the following operations:
//   - Validates registry.url
//   - Configures retries (registry.retry_max) for transport errors, 429 and 5xx
//   - Applies registry.timeout_seconds to every attempt
//   - Reads the bearer token from the variable named by registry.token_env
//
// Parameters:
//   - cfg: Effective configuration
//
// Returns:
//   - *HTTPSource: ready to use source
//   - error: invalid registry URL
func NewHTTPSource(cfg *config.Config) (*HTTPSource, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.Registry.URL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid registry URL %q", cfg.Registry.URL)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.Registry.RetryMax
	client.RetryWaitMin = retryWaitMin
	client.RetryWaitMax = retryWaitMax
	client.Logger = leveledLogger{}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if timeout := cfg.RegistryTimeout(); timeout > 0 {
		client.HTTPClient.Timeout = time.Duration(timeout) * time.Second
	}

	var token string
	if cfg.Registry.TokenEnv != "" {
		token = strings.TrimSpace(os.Getenv(cfg.Registry.TokenEnv))
	}

	return &HTTPSource{client: client, baseURL: base, token: token}, nil
}

// packageURL returns the document URL for name. Scoped names keep their
// leading @ and have the slash escaped, as npm clients do.
func (s *HTTPSource) packageURL(name string) string {
	return s.baseURL + "/" + url.PathEscape(name)
}

// VersionTimestamps fetches the registry document for name.
//
// Parameters:
//   - ctx: Cancellation for the request and its retries
//   - name: Registry package name
//
// Returns:
//   - Lookup: Available timestamps, or unavailable for transport failures,
//     non-2xx responses and documents without versions
//   - error: MalformedResponseError for non-object documents, or ctx.Err()
func (s *HTTPSource) VersionTimestamps(ctx context.Context, name string) (Lookup, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.packageURL(name), nil)
	if err != nil {
		return Unavailable(fmt.Sprintf("failed to create request: %v", err)), nil
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Lookup{}, ctxErr
		}
		return Unavailable(firstLine(err.Error())), nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Unavailable(fmt.Sprintf("registry returned %s", resp.Status)), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Lookup{}, ctxErr
		}
		return Unavailable(fmt.Sprintf("failed to read registry response: %v", err)), nil
	}
	if len(body) > maxDocumentSize {
		return Unavailable("registry document too large"), nil
	}

	ts, err := formats.ParsePackument(name, body)
	if err != nil {
		return Lookup{}, err
	}
	if len(ts) == 0 {
		return Unavailable("registry document has no publish times"), nil
	}
	return Available(ts), nil
}

// leveledLogger routes retryablehttp's request logging to the verbose logger.
type leveledLogger struct{}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	verbose.Debugf("registry: %s%s", msg, formatKV(keysAndValues))
}

func (leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	verbose.Debugf("registry: %s%s", msg, formatKV(keysAndValues))
}

func (leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	verbose.Tracef("registry: %s%s", msg, formatKV(keysAndValues))
}

func (leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	verbose.Tracef("registry: %s%s", msg, formatKV(keysAndValues))
}

func formatKV(keysAndValues []interface{}) string {
	var sb strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	return sb.String()
}
