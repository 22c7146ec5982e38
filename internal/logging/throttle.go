package logging

// ShouldReport decides whether the n-th consecutive failure of a run is worth
// a log line: the first three, then every tenth.
func ShouldReport(n int) bool {
	if n <= 0 {
		return false
	}
	return n <= 3 || n%10 == 0
}

// FailureRun counts consecutive failures of one operation. Not safe for
// concurrent use; each loop owns its own.
type FailureRun struct {
	count int
}

// Fail records a failure and returns the run length and whether to log it.
func (r *FailureRun) Fail() (int, bool) {
	r.count++
	return r.count, ShouldReport(r.count)
}

// Succeed ends the run and returns how many failures it contained.
func (r *FailureRun) Succeed() int {
	n := r.count
	r.count = 0
	return n
}

// Count returns the current run length.
func (r *FailureRun) Count() int {
	return r.count
}
