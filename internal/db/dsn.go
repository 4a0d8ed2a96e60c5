package db

import (
	"regexp"
	"strings"
)

var kvPairRegex = regexp.MustCompile(`(?i)\b(host|user|password|dbname|port|sslmode)=`)

// NormalizeDSN accepts either a URL style DSN (postgres://...) or a
// lib/pq key=value list. It trims quotes and whitespace and, for the
// key=value form, supplements sslmode when missing.
func NormalizeDSN(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return s
	}
	// If it does not look like key=value pairs, return unchanged (the
	// driver will produce the error).
	if !kvPairRegex.MatchString(s) {
		return s
	}
	cleaned := strings.Join(strings.Fields(s), " ")
	if !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return cleaned
}

// MaskDSN hides the password for log output.
func MaskDSN(dsn string) string {
	masked := regexp.MustCompile(`(password=)([^\s]+)`).ReplaceAllString(dsn, `${1}***`)
	return regexp.MustCompile(`(://[^:/@]+:)[^@]+@`).ReplaceAllString(masked, `${1}***@`)
}
