package delivery

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/buildbazaar/buildbazaar-backend/pkg/errors"
	redispkg "github.com/buildbazaar/buildbazaar-backend/pkg/redis"
)

var otpFormat = regexp.MustCompile(`^[0-9]{6}$`)

// otpStore is the slice of the redis client the issuer uses.
type otpStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	OTPKey(offerID string) string
}

// OTPIssuer binds single-use six-digit codes 1:1 to a vendor offer. Codes
// live in redis under the offer id with a TTL. Verification reads without
// deleting; the caller consumes the code only after its own writes stick,
// and the offer leaving READY keeps a consumed-but-lingering key harmless.
type OTPIssuer struct {
	store otpStore
	ttl   time.Duration
}

// NewOTPIssuer wires the issuer with its code window.
func NewOTPIssuer(store otpStore, ttl time.Duration) (*OTPIssuer, error) {
	if store == nil {
		return nil, fmt.Errorf("otp store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("otp ttl must be positive")
	}
	return &OTPIssuer{store: store, ttl: ttl}, nil
}

// Issue generates and stores a fresh code for the offer. While a live code
// exists no second one can be issued; the buyer keeps the one they have.
func (i *OTPIssuer) Issue(ctx context.Context, offerID uuid.UUID) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}

	stored, err := i.store.SetNX(ctx, i.store.OTPKey(offerID.String()), code, i.ttl)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
	}
	if !stored {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "an active code already exists for this offer")
	}
	return code, nil
}

// Verify compares the disclosed code against the stored one without spending
// it, so a matching code survives a failed completion and the buyer can retry.
// A missing key covers both "never issued" and "window elapsed"; a mismatch
// burns the code, so guessing gets one attempt per issue.
func (i *OTPIssuer) Verify(ctx context.Context, offerID uuid.UUID, code string) error {
	if !otpFormat.MatchString(code) {
		return pkgerrors.New(pkgerrors.CodeVerificationFailed, "code must be six digits")
	}

	key := i.store.OTPKey(offerID.String())
	stored, err := i.store.Get(ctx, key)
	if err != nil {
		if redispkg.IsNil(err) {
			return pkgerrors.New(pkgerrors.CodeVerificationFailed, "no active code for this offer")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read otp")
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		if err := i.store.Del(ctx, key); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "burn otp")
		}
		return pkgerrors.New(pkgerrors.CodeVerificationFailed, "code does not match")
	}
	return nil
}

// Consume spends the verified code once the delivery writes have succeeded.
func (i *OTPIssuer) Consume(ctx context.Context, offerID uuid.UUID) error {
	if err := i.store.Del(ctx, i.store.OTPKey(offerID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume otp")
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
