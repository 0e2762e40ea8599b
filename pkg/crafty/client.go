package crafty

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Thebestandgreatest/craftybroker/pkg/log"
	"github.com/Thebestandgreatest/craftybroker/pkg/metrics"
)

// TrustAllCerts is the explicit capability that allows a client to skip
// certificate validation. It is constructed only when insecure mode is
// enabled for a server; there is no silently-available global equivalent.
type TrustAllCerts struct{}

// Client issues authenticated requests against the Crafty Controller API.
// One call to Send is one request: the transport layer never retries.
type Client struct {
	http   *http.Client
	logger zerolog.Logger
}

// NewClient creates a client with secure certificate validation
func NewClient() *Client {
	return &Client{
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: log.WithComponent("crafty-client"),
	}
}

// WithTimeout sets the per-request timeout
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.http.Timeout = timeout
	return c
}

// WithInsecureTLS disables certificate validation. Callers must present the
// TrustAllCerts capability; the degradation is logged at warn level.
func (c *Client) WithInsecureTLS(TrustAllCerts) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	c.http.Transport = transport
	c.logger.Warn().Msg("certificate validation disabled for controller transport")
	return c
}

// Send issues one lifecycle action against the controller and decodes the
// reply envelope.
//
// Recoverable failures (connection reset from an http/https mismatch,
// controller-reported errors, unparseable bodies) come back as a Result with
// OK=false. Everything else is a returned error.
func (c *Client) Send(ctx context.Context, ep Endpoint, action ActionKind) (*Result, error) {
	method, suffix, err := action.Encode()
	if err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(ep.BaseURL, "/") + "/api/v2/servers/" + ep.ServerID
	if suffix != "" {
		url += "/" + suffix
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", action, err)
	}
	req.Header.Set("Authorization", "Bearer "+ep.Token)
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	c.logger.Debug().
		Str("request_id", requestID).
		Str("action", string(action)).
		Str("method", method).
		Str("url", url).
		Msg("sending controller request")

	resp, err := c.http.Do(req)
	if err != nil {
		if isProtocolMismatch(err) {
			metrics.RemoteRequestsTotal.WithLabelValues(string(action), "error").Inc()
			detail := fmt.Sprintf(
				"connection to %s reset: the controller may expect %s instead",
				ep.BaseURL, oppositeScheme(ep.BaseURL))
			c.logger.Debug().Str("request_id", requestID).Err(err).Msg(detail)
			return &Result{OK: false, ErrorDetail: detail}, nil
		}
		metrics.RemoteRequestsTotal.WithLabelValues(string(action), "transport_error").Inc()
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RemoteRequestsTotal.WithLabelValues(string(action), "transport_error").Inc()
		return nil, fmt.Errorf("reading reply to %s: %w", action, err)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Int("http_status", resp.StatusCode).
		Str("body", string(body)).
		Msg("controller reply")

	env, err := decodeEnvelope(body)
	if err != nil {
		metrics.RemoteRequestsTotal.WithLabelValues(string(action), "error").Inc()
		return &Result{OK: false, ErrorDetail: err.Error()}, nil
	}

	if !env.OK() {
		metrics.RemoteRequestsTotal.WithLabelValues(string(action), "error").Inc()
		return &Result{OK: false, State: env.Data, ErrorDetail: env.ErrorDetail()}, nil
	}

	metrics.RemoteRequestsTotal.WithLabelValues(string(action), "ok").Inc()
	return &Result{OK: true, State: env.Data}, nil
}

// isProtocolMismatch reports whether a transport error looks like the
// connection-reset symptom of talking plaintext to a TLS port or vice versa
func isProtocolMismatch(err error) bool {
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "server gave HTTP response to HTTPS client") ||
		strings.Contains(msg, "first record does not look like a TLS handshake")
}

func oppositeScheme(baseURL string) string {
	if strings.HasPrefix(baseURL, "https://") {
		return "http"
	}
	return "https"
}
