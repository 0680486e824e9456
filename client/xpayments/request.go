package xpayments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	httpclient "github.com/xpayments/xpayments-cloud-go/client/http"
)

const (
	xpDomain   = "xpayments.com"
	apiVersion = "4.8"

	defaultConnectionTimeout = 120 * time.Second
)

// Request builds, signs and sends single API calls to X-Payments Cloud. Each
// Send is one synchronous POST round trip; nothing is retried or recovered
// locally. A Request is safe for concurrent use: the credentials and host
// configuration are fixed at construction.
type Request struct {
	creds      Credentials
	testHost   string
	timeout    time.Duration
	transport  http.RoundTripper
	httpClient *httpclient.HTTPClient
}

// RequestOption configures a Request at construction time.
type RequestOption func(*Request)

// WithTestServerHost overrides the {account}.xpayments.com host, e.g. to point
// the SDK at a staging gateway or a test double.
func WithTestServerHost(host string) RequestOption {
	return func(r *Request) {
		r.testHost = host
	}
}

// WithTimeout overrides the default 120s connection timeout.
func WithTimeout(timeout time.Duration) RequestOption {
	return func(r *Request) {
		r.timeout = timeout
	}
}

// WithTransport overrides the underlying HTTP round tripper.
func WithTransport(transport http.RoundTripper) RequestOption {
	return func(r *Request) {
		r.transport = transport
	}
}

// NewRequest validates the credentials and prepares a request sender.
func NewRequest(creds Credentials, options ...RequestOption) (*Request, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	r := &Request{
		creds:   creds,
		timeout: defaultConnectionTimeout,
	}
	for _, option := range options {
		option(r)
	}

	clientOptions := []httpclient.ClientOption{
		httpclient.WithTimeout(r.timeout),
	}
	if r.transport != nil {
		clientOptions = append(clientOptions, httpclient.WithTransport(r.transport))
	}
	r.httpClient = httpclient.NewHTTPClient(clientOptions...)

	return r, nil
}

// ServerHost returns the gateway host: the test-server override when one is
// configured, otherwise {account}.xpayments.com.
func (r *Request) ServerHost() string {
	if len(r.testHost) > 0 {
		return r.testHost
	}
	return fmt.Sprintf("%s.%s", r.creds.Account, xpDomain)
}

// APIEndpoint returns the full URL for a controller/action pair.
func (r *Request) APIEndpoint(controller, action string) string {
	return fmt.Sprintf("https://%s/api/%s/%s/%s", r.ServerHost(), apiVersion, controller, action)
}

// Send serializes data, signs it and posts it to the given controller/action
// endpoint, returning the decoded JSON response value.
func (r *Request) Send(ctx context.Context, controller, action string, data interface{}) (interface{}, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling request parameters")
	}

	auth, err := r.authorizationHeader()
	if err != nil {
		return nil, err
	}
	signature, err := r.signatureHeader(action, body)
	if err != nil {
		return nil, err
	}

	endpoint := r.APIEndpoint(controller, action)
	resp, err := r.httpClient.Post(ctx, endpoint, json.RawMessage(body),
		httpclient.WithHeader("Authorization", "Basic "+auth),
		httpclient.WithHeader("X-Payments-Signature", signature),
		httpclient.WithHeader("Content-Type", "application/json"),
	)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "sending %s/%s request", controller, action)
	}

	// client/http flags >= 400; anything else outside 2xx is a failure too.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrapf(&httpclient.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        endpoint,
			Method:     http.MethodPost,
		}, "sending %s/%s request", controller, action)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s/%s response", controller, action)
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &JSONProcessingError{Message: err.Error()}
	}
	return decoded, nil
}

// authorizationHeader returns the Basic auth value: base64 of account:apiKey.
func (r *Request) authorizationHeader() (string, error) {
	if !utf8.ValidString(r.creds.Account) || !utf8.ValidString(r.creds.APIKey) {
		return "", fmt.Errorf("%w: authorization header", ErrUnicodeProcessing)
	}
	return base64.StdEncoding.EncodeToString([]byte(r.creds.Account + ":" + r.creds.APIKey)), nil
}

// signatureHeader returns the lowercase hex HMAC-SHA256 digest of the action
// name immediately followed by the serialized body, keyed by the secret key.
func (r *Request) signatureHeader(action string, body []byte) (string, error) {
	if !utf8.ValidString(r.creds.SecretKey) || !utf8.ValidString(action) || !utf8.Valid(body) {
		return "", fmt.Errorf("%w: signature header", ErrUnicodeProcessing)
	}
	mac := hmac.New(sha256.New, []byte(r.creds.SecretKey))
	mac.Write([]byte(action))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil)), nil
}
