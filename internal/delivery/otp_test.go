package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/buildbazaar/buildbazaar-backend/pkg/errors"
)

type fakeOTPStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeOTPStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeOTPStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeOTPStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeOTPStore) OTPKey(offerID string) string {
	return "bb:otp:" + offerID
}

func TestOTPIssuer_IssueAndVerify(t *testing.T) {
	store := newFakeOTPStore()
	issuer, err := NewOTPIssuer(store, 10*time.Minute)
	if err != nil {
		t.Fatalf("unexpected issuer error: %v", err)
	}

	offerID := uuid.New()
	code, err := issuer.Issue(context.Background(), offerID)
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected six-digit code, got %q", code)
	}
	if store.ttls[store.OTPKey(offerID.String())] != 10*time.Minute {
		t.Fatal("expected code stored with the configured ttl")
	}

	if err := issuer.Verify(context.Background(), offerID, code); err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}

	// A match leaves the code live until the caller consumes it, so a failed
	// completion can retry with the same code.
	if err := issuer.Verify(context.Background(), offerID, code); err != nil {
		t.Fatalf("expected matching code to survive verify, got %v", err)
	}

	// Single-use: once consumed the code never verifies again.
	if err := issuer.Consume(context.Background(), offerID); err != nil {
		t.Fatalf("unexpected consume error: %v", err)
	}
	err = issuer.Verify(context.Background(), offerID, code)
	if pkgerrors.As(err).Code() != pkgerrors.CodeVerificationFailed {
		t.Fatalf("expected verification failed after consume, got %v", err)
	}
}

func TestOTPIssuer_SecondIssueBlockedWhileLive(t *testing.T) {
	store := newFakeOTPStore()
	issuer, _ := NewOTPIssuer(store, time.Minute)

	offerID := uuid.New()
	if _, err := issuer.Issue(context.Background(), offerID); err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}
	_, err := issuer.Issue(context.Background(), offerID)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for duplicate issue, got %v", err)
	}
}

func TestOTPIssuer_VerifyRejectsBadFormat(t *testing.T) {
	issuer, _ := NewOTPIssuer(newFakeOTPStore(), time.Minute)

	for _, code := range []string{"", "12345", "1234567", "12345a", "12 456"} {
		err := issuer.Verify(context.Background(), uuid.New(), code)
		if pkgerrors.As(err).Code() != pkgerrors.CodeVerificationFailed {
			t.Fatalf("expected verification failed for %q, got %v", code, err)
		}
	}
}

func TestOTPIssuer_VerifyMismatchBurnsCode(t *testing.T) {
	store := newFakeOTPStore()
	issuer, _ := NewOTPIssuer(store, time.Minute)

	offerID := uuid.New()
	code, err := issuer.Issue(context.Background(), offerID)
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	err = issuer.Verify(context.Background(), offerID, wrong)
	if pkgerrors.As(err).Code() != pkgerrors.CodeVerificationFailed {
		t.Fatalf("expected verification failed, got %v", err)
	}

	// The real code is gone too: one guess per issued code.
	err = issuer.Verify(context.Background(), offerID, code)
	if pkgerrors.As(err).Code() != pkgerrors.CodeVerificationFailed {
		t.Fatalf("expected code burned after mismatch, got %v", err)
	}
}

func TestOTPIssuer_VerifyMissingCode(t *testing.T) {
	issuer, _ := NewOTPIssuer(newFakeOTPStore(), time.Minute)
	err := issuer.Verify(context.Background(), uuid.New(), "123456")
	if pkgerrors.As(err).Code() != pkgerrors.CodeVerificationFailed {
		t.Fatalf("expected verification failed for missing code, got %v", err)
	}
}
