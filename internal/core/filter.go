package core

// DateRange bounds a set of transactions in time. An empty Start or End
// means unbounded on that side; both bounds are inclusive.
type DateRange struct {
	Start Date `json:"startDate"`
	End   Date `json:"endDate"`
}

// IsOpen reports whether the range places no constraint at all.
func (r DateRange) IsOpen() bool {
	return r.Start.IsEmpty() && r.End.IsEmpty()
}

// IsClosed reports whether both bounds are set.
func (r DateRange) IsClosed() bool {
	return !r.Start.IsEmpty() && !r.End.IsEmpty()
}

// Contains reports whether d falls inside the range, bounds included.
func (r DateRange) Contains(d Date) bool {
	if !r.Start.IsEmpty() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsEmpty() && d.After(r.End) {
		return false
	}
	return true
}

// FilterByRange returns the transactions whose date falls inside r,
// preserving input order. With an open range the input slice is returned
// as-is: no copy, no mutation.
func FilterByRange(txs []Transaction, r DateRange) []Transaction {
	if r.IsOpen() {
		return txs
	}
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if r.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}
