package models

import "errors"

// ErrStaleQuantity signals that a conditional batch-quantity write found a
// different quantity than the one observed when the allocation was planned.
// The caller is expected to re-read stock and re-plan.
var ErrStaleQuantity = errors.New("stock batch quantity changed concurrently")
