package models

import "time"

// Product describes a distributable good. Quantities live in StockBatch;
// a product may be backed by many batches with different expiry dates.
type Product struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Category  string    `bson:"category,omitempty" json:"category,omitempty"`
	Unit      string    `bson:"unit" json:"unit"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
