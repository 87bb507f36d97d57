package sema

import "strconv"

// primitiveNames are the built-in type and value keywords an identifier
// may resolve to without any declaration.
var primitiveNames = map[string]struct{}{
	"void":           {},
	"bool":           {},
	"type":           {},
	"anyerror":       {},
	"anyframe":       {},
	"anyopaque":      {},
	"noreturn":       {},
	"usize":          {},
	"isize":          {},
	"f16":            {},
	"f32":            {},
	"f64":            {},
	"f80":            {},
	"f128":           {},
	"comptime_int":   {},
	"comptime_float": {},
	"c_int":          {},
	"c_uint":         {},
	"c_long":         {},
	"c_ulong":        {},
	"c_longlong":     {},
	"c_ulonglong":    {},
	"c_char":         {},
}

// isPrimitiveName reports whether name denotes a built-in type, including
// arbitrary-width u<N>/i<N> integers with N parseable as a 16-bit unsigned.
func isPrimitiveName(name string) bool {
	if _, ok := primitiveNames[name]; ok {
		return true
	}
	if len(name) < 2 {
		return false
	}
	if name[0] != 'u' && name[0] != 'i' {
		return false
	}
	_, err := strconv.ParseUint(name[1:], 10, 16)
	return err == nil
}
