// Package textutil provides text helpers used when naming capture output.
//
// SanitizeTitle reduces a broadcast title to letters, digits, and single
// spaces so it can be embedded in a filename on any platform.
// SanitizeFileName and SanitizeToken are looser helpers for directory names
// and identifiers.
package textutil
