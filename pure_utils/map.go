package pure_utils

func Map[T, U any](ts []T, f func(T) U) []U {
	us := make([]U, len(ts))
	for i := range ts {
		us[i] = f(ts[i])
	}
	return us
}

func MapErr[T, U any](ts []T, f func(T) (U, error)) ([]U, error) {
	us := make([]U, len(ts))
	for i := range ts {
		u, err := f(ts[i])
		if err != nil {
			return nil, err
		}
		us[i] = u
	}
	return us, nil
}

func Filter[T any](ts []T, keep func(T) bool) []T {
	out := make([]T, 0, len(ts))
	for _, t := range ts {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
