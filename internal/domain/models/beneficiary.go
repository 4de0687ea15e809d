package models

import "time"

// BeneficiaryStatus enumerates the registration lifecycle of a beneficiary.
type BeneficiaryStatus string

const (
	BeneficiaryPending  BeneficiaryStatus = "PENDING_APPROVAL"
	BeneficiaryApproved BeneficiaryStatus = "APPROVED"
	BeneficiaryRejected BeneficiaryStatus = "REJECTED"
	BeneficiaryInactive BeneficiaryStatus = "INACTIVE"
)

// Beneficiary represents a registered aid recipient.
type Beneficiary struct {
	ID            string            `bson:"_id" json:"id"`
	Name          string            `bson:"name" json:"name"`
	Document      string            `bson:"document" json:"document"`
	Phone         string            `bson:"phone" json:"phone"`
	Address       string            `bson:"address" json:"address"`
	HouseholdSize int               `bson:"household_size" json:"household_size"`
	Status        BeneficiaryStatus `bson:"status" json:"status"`
	Observations  string            `bson:"observations,omitempty" json:"observations,omitempty"`
	CreatedAt     time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at" json:"updated_at"`
}

// CanReceiveDeliveries reports whether deliveries may be scheduled for this beneficiary.
func (b Beneficiary) CanReceiveDeliveries() bool {
	return b.Status == BeneficiaryApproved
}
