package models

const (
	// StatusPending indicates the entity has not seen any auditing activity.
	StatusPending = "PENDING"
	// StatusAuditing indicates auditing is in progress.
	StatusAuditing = "AUDITING"
	// StatusAudited indicates auditing finished; the status is terminal.
	StatusAudited = "AUDITED"
)

var statusRank = map[string]int{
	StatusPending:  0,
	StatusAuditing: 1,
	StatusAudited:  2,
}

// StatusRank returns the position of a status in the PENDING->AUDITING->AUDITED
// progression. Unknown statuses rank below PENDING.
func StatusRank(status string) int {
	if rank, ok := statusRank[status]; ok {
		return rank
	}
	return -1
}

// StatusAdvances reports whether moving from current to next goes forward in
// the lifecycle. Writes that do not advance are suppressed, never errors.
func StatusAdvances(current, next string) bool {
	return StatusRank(next) > StatusRank(current)
}
