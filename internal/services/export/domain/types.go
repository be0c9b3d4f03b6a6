// Package domain holds CSV export types
package domain

import "time"

// RangeInput scopes an export to a window and optional branch
type RangeInput struct {
	BranchID string    `json:"branch_id,omitempty"`
	From     time.Time `json:"from" validate:"required"`
	To       time.Time `json:"to"   validate:"required"`
}

// Result is one rendered export. Body is BOM-prefixed UTF-8; Hash is the
// SHA-256 hex of the body without the BOM and belongs in X-Content-Hash
type Result struct {
	Filename string `json:"filename"`
	Hash     string `json:"hash"`
	Rows     int    `json:"rows"`
	Body     []byte `json:"-"`
}
