package models

import (
	"fmt"
	"time"
)

// Batch operation statuses
const (
	BatchStatusProcessing = "processing"
	BatchStatusCompleted  = "completed"
	BatchStatusPartial    = "partial"
	BatchStatusFailed     = "failed"
)

// Per-item statuses
const (
	BatchItemSuccess = "success"
	BatchItemFailed  = "failed"
	BatchItemSkipped = "skipped"
)

// BatchResult represents the aggregate outcome of one movement applied to many items
type BatchResult struct {
	OperationID    string           `json:"operation_id"`              // Unique operation ID
	ContainerID    string           `json:"container_id"`              // Variant the batch ran against
	MovementType   MovementType     `json:"movement_type"`             // Movement applied to every item
	Status         string           `json:"status"`                    // processing, completed, partial, failed
	TotalItems     int              `json:"total_items"`               // Items a request was issued for
	SucceededItems int              `json:"succeeded_items"`           // Requests the collaborator accepted
	FailedItems    int              `json:"failed_items"`              // Requests the collaborator rejected
	SkippedItems   int              `json:"skipped_items"`             // Stale ids dropped before issuing
	StartTime      time.Time        `json:"start_time"`                // Operation start time
	CompletionTime *time.Time       `json:"completion_time,omitempty"` // Set once every request settled
	Errors         []BatchItemError `json:"errors,omitempty"`          // One entry per failed item
	Items          []BatchItem      `json:"items,omitempty"`           // Results per item, in selection order
}

// BatchItemError represents an error for a specific item in a batch
type BatchItemError struct {
	ItemIndex int    `json:"item_index"`
	ItemID    string `json:"item_id"`
	Error     string `json:"error"`
}

// BatchItem represents the result for a specific item
type BatchItem struct {
	ItemIndex int     `json:"item_index"`
	ItemID    string  `json:"item_id"`
	Status    string  `json:"status"`
	Error     *string `json:"error,omitempty"`
}

// Succeeded reports whether every issued request was accepted.
func (r *BatchResult) Succeeded() bool {
	return r.TotalItems > 0 && r.FailedItems == 0
}

// Summary is the count based message shown to users, e.g. "3 of 5 succeeded".
func (r *BatchResult) Summary() string {
	return fmt.Sprintf("%d of %d succeeded", r.SucceededItems, r.TotalItems)
}

// Finish derives the final status from the counters and stamps completion time.
func (r *BatchResult) Finish(now time.Time) {
	switch {
	case r.FailedItems == 0:
		r.Status = BatchStatusCompleted
	case r.SucceededItems == 0:
		r.Status = BatchStatusFailed
	default:
		r.Status = BatchStatusPartial
	}
	r.CompletionTime = &now
}
