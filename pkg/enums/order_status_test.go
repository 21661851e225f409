package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusActive, false},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusActive, true},
		{OrderStatusConfirmed, OrderStatusCompleted, false},
		{OrderStatusActive, OrderStatusCompleted, true},
		{OrderStatusActive, OrderStatusDisputed, true},
		{OrderStatusCompleted, OrderStatusDisputed, true},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{OrderStatusDisputed, OrderStatusCompleted, true},
		{OrderStatusDisputed, OrderStatusCancelled, true},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if !OrderStatusCompleted.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatal("completed and cancelled are terminal")
	}
	if OrderStatusActive.IsTerminal() {
		t.Fatal("active is not terminal")
	}
}

func TestVendorOfferStatusTransitions(t *testing.T) {
	if !VendorOfferStatusReady.CanTransitionTo(VendorOfferStatusCompleted) {
		t.Fatal("OTP confirmation jumps ready -> completed")
	}
	if !VendorOfferStatusReady.CanTransitionTo(VendorOfferStatusDelivered) {
		t.Fatal("photo confirmation moves ready -> delivered")
	}
	if VendorOfferStatusDelivered.CanTransitionTo(VendorOfferStatusReady) {
		t.Fatal("delivered cannot regress")
	}
	if VendorOfferStatusRejected.CanTransitionTo(VendorOfferStatusAccepted) {
		t.Fatal("rejected is terminal")
	}
	for _, s := range []VendorOfferStatus{VendorOfferStatusCompleted, VendorOfferStatusRejected, VendorOfferStatusWithdrawn, VendorOfferStatusExpired, VendorOfferStatusCancelled} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
}

func TestDisputeStatusHelpers(t *testing.T) {
	if !DisputeStatusOpen.CanTransitionTo(DisputeStatusEscalated) {
		t.Fatal("open disputes can escalate")
	}
	if !DisputeStatusEscalated.CanTransitionTo(DisputeStatusUnderReview) {
		t.Fatal("escalated disputes return to review")
	}
	if DisputeStatusOpen.CanTransitionTo(DisputeStatusResolvedRefund) {
		t.Fatal("resolution requires review first")
	}
	if !DisputeStatusResolvedPartialRefund.IsTerminal() {
		t.Fatal("resolutions are terminal")
	}
	if !DisputeStatusResolvedRefund.IsRefundOutcome() || !DisputeStatusResolvedPartialRefund.IsRefundOutcome() {
		t.Fatal("refund outcomes misreported")
	}
	if DisputeStatusRejected.IsRefundOutcome() {
		t.Fatal("rejected grants no refund")
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("active")
	if err != nil || status != OrderStatusActive {
		t.Fatalf("unexpected parse result %v %v", status, err)
	}
	if _, err := ParseOrderStatus("unknown"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
