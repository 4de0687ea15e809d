package models

import "testing"

func TestParseDeliveryStatus(t *testing.T) {
	valid := []string{"SCHEDULED", "UNDER_ANALYSIS", "DELIVERED", "CANCELLED", "REJECTED"}
	for _, raw := range valid {
		status, err := ParseDeliveryStatus(raw)
		if err != nil {
			t.Fatalf("expected %s to parse, got: %v", raw, err)
		}
		if string(status) != raw {
			t.Errorf("expected %s, got %s", raw, status)
		}
	}

	if _, err := ParseDeliveryStatus("SHIPPED"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestDeliveryStatusTerminal(t *testing.T) {
	terminal := []DeliveryStatus{DeliveryDelivered, DeliveryCancelled, DeliveryRejected}
	for _, status := range terminal {
		if !status.Terminal() {
			t.Errorf("expected %s to be terminal", status)
		}
	}

	open := []DeliveryStatus{DeliveryScheduled, DeliveryUnderAnalysis}
	for _, status := range open {
		if status.Terminal() {
			t.Errorf("expected %s to not be terminal", status)
		}
	}
}

func TestParseShortfallPolicy(t *testing.T) {
	if _, err := ParseShortfallPolicy("allow"); err != nil {
		t.Fatalf("expected allow to parse, got: %v", err)
	}
	if _, err := ParseShortfallPolicy("reject"); err != nil {
		t.Fatalf("expected reject to parse, got: %v", err)
	}
	if _, err := ParseShortfallPolicy("backorder"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
