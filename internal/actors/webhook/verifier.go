package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Transport headers of the provider signing scheme. The signature covers the
// literal byte sequence of the body, so the handler must hand over the raw
// request bytes, never a re-serialized form.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

const (
	secretPrefix = "whsec_"

	// defaultTolerance is the accepted clock skew between the signing
	// timestamp and the server clock. Deliveries outside the window are
	// rejected as replays.
	defaultTolerance = 5 * time.Minute
)

// ErrInvalidSignature is returned when a request cannot be authenticated:
// missing headers, a stale timestamp, or a signature mismatch.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// VerifierArgs are the mandatory arguments for building a Verifier.
type VerifierArgs struct {
	// Secret is the shared signing secret in the provider format
	// "whsec_<base64-key>".
	Secret string
}

// VerifierOptArgs are the optional arguments for building a Verifier.
type VerifierOptArgs = func(*Verifier)

// WithTolerance overrides the replay tolerance window.
func WithTolerance(tolerance time.Duration) VerifierOptArgs {
	return func(v *Verifier) {
		v.tolerance = tolerance
	}
}

// WithNowFunc can be used to override the nowFunc. Useful for testing.
func WithNowFunc(nowFunc func() time.Time) VerifierOptArgs {
	return func(v *Verifier) {
		v.nowFunc = nowFunc
	}
}

// NewVerifier creates a new Verifier from the shared signing secret.
func NewVerifier(args VerifierArgs, optArgs ...VerifierOptArgs) (*Verifier, error) {
	if args.Secret == "" {
		return nil, errors.New("webhook signing secret is empty")
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(args.Secret, secretPrefix))
	if err != nil {
		return nil, fmt.Errorf("error decoding webhook signing secret: %w", err)
	}
	v := &Verifier{
		key:       key,
		tolerance: defaultTolerance,
		nowFunc:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range optArgs {
		opt(v)
	}
	return v, nil
}

// Verifier authenticates inbound webhook deliveries against the provider's
// timestamped HMAC-SHA256 scheme before any business logic runs.
type Verifier struct {
	key       []byte
	tolerance time.Duration
	nowFunc   func() time.Time
}

// Verify checks the delivery headers against the raw body bytes. It returns
// ErrInvalidSignature on any authentication failure.
func (v *Verifier) Verify(headers http.Header, body []byte) error {
	id := headers.Get(HeaderID)
	timestamp := headers.Get(HeaderTimestamp)
	signatures := headers.Get(HeaderSignature)
	if id == "" || timestamp == "" || signatures == "" {
		return fmt.Errorf("missing required webhook headers: %w", ErrInvalidSignature)
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed webhook timestamp: %w", ErrInvalidSignature)
	}
	signedAt := time.Unix(unix, 0)
	if skew := v.nowFunc().Sub(signedAt); skew > v.tolerance || skew < -v.tolerance {
		return fmt.Errorf("webhook timestamp outside tolerance window: %w", ErrInvalidSignature)
	}

	expected := v.sign(id, timestamp, body)

	// The signature header may carry several space-separated versioned
	// candidates; any matching v1 entry authenticates the request.
	for _, candidate := range strings.Split(signatures, " ") {
		version, signature, found := strings.Cut(candidate, ",")
		if !found || version != "v1" {
			continue
		}
		provided, err := base64.StdEncoding.DecodeString(signature)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, provided) {
			return nil
		}
	}

	return ErrInvalidSignature
}

func (v *Verifier) sign(id, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(id))
	mac.Write([]byte("."))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}
