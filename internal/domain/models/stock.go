package models

import "time"

// StockBatch is a discrete lot of a product with its own quantity and
// expiry date. ExpiryDate is the FEFO ordering key: soon-to-expire batches
// are consumed before longer-dated ones.
type StockBatch struct {
	ID           string    `bson:"_id" json:"id"`
	ProductID    string    `bson:"product_id" json:"product_id"`
	CampaignID   string    `bson:"campaign_id,omitempty" json:"campaign_id,omitempty"`
	Quantity     int       `bson:"quantity" json:"quantity"`
	EntryDate    time.Time `bson:"entry_date" json:"entry_date"`
	ExpiryDate   time.Time `bson:"expiry_date" json:"expiry_date"`
	Observations string    `bson:"observations,omitempty" json:"observations,omitempty"`
}

// ExpiresBefore reports whether the batch expires strictly before the deadline.
func (b StockBatch) ExpiresBefore(deadline time.Time) bool {
	return b.ExpiryDate.Before(deadline)
}
