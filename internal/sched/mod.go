package sched

// floorMod returns x mod m with the sign of m, matching Python's %.
// For positive m the result is always in [0, m).
func floorMod(x, m int) int {
	r := x % m
	if r != 0 && (r < 0) != (m < 0) {
		r += m
	}
	return r
}

// floorDiv returns x/m rounded toward negative infinity, so that
// x == floorDiv(x, m)*m + floorMod(x, m) holds for all x.
func floorDiv(x, m int) int {
	q := x / m
	if (x%m != 0) && ((x < 0) != (m < 0)) {
		q--
	}
	return q
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
