package slices

func Filter[T any](slice []T, keep func(T) bool) []T {
	var result []T
	for i := range slice {
		if keep(slice[i]) {
			result = append(result, slice[i])
		}
	}

	return result
}

func Convert[A any, B any](slice []A, fn func(A, int) B) []B {
	var result = make([]B, len(slice))
	for i := range slice {
		result[i] = fn(slice[i], i)
	}

	return result
}
