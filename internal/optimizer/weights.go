package optimizer

// Weights returns the shift weights for n unfinished appointments in id order.
// The vector grows as a running pairwise sum from [1, 1] and is then reversed,
// so the earliest appointment is the most expensive to move:
//
//	Weights(4) == []int{3, 2, 1, 1}
//
// Weights grow like the Fibonacci sequence, so the driver refuses dates with
// more than constants.MaxPendingPerDay unfinished appointments.
func Weights(n int) []int {
	if n <= 0 {
		return []int{}
	}
	w := make([]int, 2, max(n, 2))
	w[0], w[1] = 1, 1
	for i := 0; len(w) < n; i++ {
		w = append(w, w[i]+w[i+1])
	}
	w = w[:n]
	for i, j := 0, len(w)-1; i < j; i, j = i+1, j-1 {
		w[i], w[j] = w[j], w[i]
	}
	return w
}
