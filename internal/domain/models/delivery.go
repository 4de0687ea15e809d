package models

import (
	"fmt"
	"time"
)

// DeliveryStatus enumerates the lifecycle states of a delivery.
type DeliveryStatus string

const (
	DeliveryScheduled     DeliveryStatus = "SCHEDULED"
	DeliveryUnderAnalysis DeliveryStatus = "UNDER_ANALYSIS"
	DeliveryDelivered     DeliveryStatus = "DELIVERED"
	DeliveryCancelled     DeliveryStatus = "CANCELLED"
	DeliveryRejected      DeliveryStatus = "REJECTED"
)

// ParseDeliveryStatus validates a raw status string.
func ParseDeliveryStatus(raw string) (DeliveryStatus, error) {
	status := DeliveryStatus(raw)
	switch status {
	case DeliveryScheduled, DeliveryUnderAnalysis, DeliveryDelivered, DeliveryCancelled, DeliveryRejected:
		return status, nil
	default:
		return "", fmt.Errorf("unknown delivery status %q", raw)
	}
}

// Terminal reports whether the status admits no further transitions.
func (s DeliveryStatus) Terminal() bool {
	switch s {
	case DeliveryDelivered, DeliveryCancelled, DeliveryRejected:
		return true
	default:
		return false
	}
}

// DeliveryRecord is a scheduled or completed hand-off of goods to a
// beneficiary. Items maps productID to the requested quantity. The
// DELIVERED transition is the only one with a stock side effect.
type DeliveryRecord struct {
	ID            string         `bson:"_id" json:"id"`
	BeneficiaryID string         `bson:"beneficiary_id" json:"beneficiary_id"`
	ScheduledDate time.Time      `bson:"scheduled_date" json:"scheduled_date"`
	Date          time.Time      `bson:"date" json:"date"`
	Status        DeliveryStatus `bson:"status" json:"status"`
	Items         map[string]int `bson:"items" json:"items"`
	Observations  string         `bson:"observations,omitempty" json:"observations,omitempty"`
	CreatedBy     string         `bson:"created_by" json:"created_by"`
}
