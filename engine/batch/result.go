package batch

func aborted(msg string) *Result {
	return &Result{Success: false, Results: []ItemResult{}, Error: msg}
}

// aggregate keeps input order; the batch succeeds when any item did.
func aggregate(results []*ItemResult) *Result {
	out := &Result{Results: make([]ItemResult, len(results))}
	for i, res := range results {
		if res == nil {
			res = failure("Item was not processed")
		}
		out.Results[i] = *res
		if res.Success {
			out.Success = true
		}
	}
	return out
}

func countSucceeded(results []ItemResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
