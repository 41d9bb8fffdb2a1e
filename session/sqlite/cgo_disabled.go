//go:build !cgo

package sqlite

// CGOEnabled reports whether the transcript store was built with cgo. The
// go-sqlite3 driver needs cgo; tests skip when it is unavailable.
const CGOEnabled = false
