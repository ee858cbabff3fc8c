package pure_utils

func Ptr[T any](v T) *T {
	return &v
}

func PtrValueOrDefault[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
