package pointers

import "time"

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

func Uint(v uint) *uint           { return &v }
func Int(v int) *int              { return &v }
func Float64(v float64) *float64  { return &v }
func String(v string) *string     { return &v }
func Time(v time.Time) *time.Time { return &v }

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
