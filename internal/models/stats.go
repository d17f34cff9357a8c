package models

import "time"

// VariantStats summarises a variant's items for toolbar counters and dashboards.
type VariantStats struct {
	VariantID    string             `json:"variant_id"`
	InStock      int                `json:"in_stock"`
	Exited       int                `json:"exited"`
	ByStatus     map[ItemStatus]int `json:"by_status"`
	ByExitReason map[string]int     `json:"by_exit_reason"`
	ComputedAt   time.Time          `json:"computed_at"`
}

// ComputeVariantStats tallies items that belong to variantID.
func ComputeVariantStats(variantID string, items []*Item, now time.Time) *VariantStats {
	stats := &VariantStats{
		VariantID:    variantID,
		ByStatus:     make(map[ItemStatus]int),
		ByExitReason: make(map[string]int),
		ComputedAt:   now,
	}
	for _, it := range items {
		if it.IsExited() {
			stats.Exited++
			reason := "UNKNOWN"
			if it.LastExitReasonCode != nil && *it.LastExitReasonCode != "" {
				reason = *it.LastExitReasonCode
			}
			stats.ByExitReason[reason]++
			continue
		}
		stats.InStock++
		stats.ByStatus[it.Status]++
	}
	return stats
}
