package survey

// AnsweredCount returns how many questions across all pages carry at least
// one answer.
func AnsweredCount(r Response) int {
	n := 0
	for _, p := range r.Pages {
		for _, q := range p.Questions {
			if len(q.Answers) > 0 {
				n++
			}
		}
	}
	return n
}

// IsEligible reports whether r answered at least threshold questions.
// Partial or abandoned submissions fall below the threshold. A response that
// answered more questions than the survey defines still passes.
func IsEligible(r Response, threshold int) bool {
	return AnsweredCount(r) >= threshold
}

// Evaluator binds a fixed threshold so callers can pass it around as a
// single dependency.
type Evaluator struct {
	Threshold int
}

func (e Evaluator) IsEligible(r Response) bool {
	return IsEligible(r, e.Threshold)
}
