package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Format selects the output format of rendered reports.
type Format string

const (
	FormatHTML Format = "HTML"
	FormatXML  Format = "XML"
	FormatCSV  Format = "CSV"
)

// DefaultFormat is used when no or an unknown format is requested.
const DefaultFormat = FormatHTML

// ParseFormat is case-insensitive; anything unrecognized yields DefaultFormat.
func ParseFormat(s string) Format {
	switch Format(strings.ToUpper(strings.TrimSpace(s))) {
	case FormatHTML:
		return FormatHTML
	case FormatXML:
		return FormatXML
	case FormatCSV:
		return FormatCSV
	default:
		return DefaultFormat
	}
}

// IsKnownFormat reports whether s names a supported format.
func IsKnownFormat(s string) bool {
	switch Format(strings.ToUpper(strings.TrimSpace(s))) {
	case FormatHTML, FormatXML, FormatCSV:
		return true
	}
	return false
}

// SplitPatterns splits a filter argument on the platform path-list
// separator (":" on Unix, ";" on Windows) and drops empty entries.
func SplitPatterns(s string) []string {
	var patterns []string
	for _, p := range filepath.SplitList(s) {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// ListSeparator is the delimiter SplitPatterns splits on.
const ListSeparator = string(os.PathListSeparator)
