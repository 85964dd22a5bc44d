// Package env reads typed values from environment variables. Unset or
// unparsable values fall back to the given default.
package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func String(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func Int(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func Bool(k string, def bool) bool {
	if b, ok := ParseBool(os.Getenv(k)); ok {
		return b
	}
	return def
}

// ParseBool accepts 1/t/true/y/yes and 0/f/false/n/no, case-insensitively.
func ParseBool(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes":
		return true, true
	case "0", "f", "false", "n", "no":
		return false, true
	}
	return false, false
}

func Duration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

// List splits a comma-separated value, dropping empty items.
func List(k string, def []string) []string {
	var out []string
	for p := range strings.SplitSeq(os.Getenv(k), ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
