package rng

// Shuffle permutes s in place with a Fisher-Yates pass over src.
//
// Postcondition: s holds the same elements; the permutation depends only
// on the values src returns.
func Shuffle[T any](src Source, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// Pick returns a uniformly chosen element of s.
//
// Precondition: len(s) > 0.
func Pick[T any](src Source, s []T) T {
	return s[src.Intn(len(s))]
}

// PickIndex returns a uniformly chosen index of s, or -1 if s is empty.
func PickIndex[T any](src Source, s []T) int {
	if len(s) == 0 {
		return -1
	}
	return src.Intn(len(s))
}
