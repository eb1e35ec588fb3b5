package service

import (
	"strconv"
	"strings"
	"time"
)

const (
	hoursPerDay = 24
	// maxExpiry 有效期上限，防止"实际上永不过期"的分享.
	maxExpiry = 90 * hoursPerDay * time.Hour
)

// parseExpiresIn 解析 "30m"、"12h"、"1d"、"7d" 形式的有效期.
// 返回的时长恒为正且不超过 maxExpiry.
func parseExpiresIn(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if len(s) < 2 {
		return 0, validationErr("expires_in %q is malformed", s)
	}

	unit := s[len(s)-1]
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || num <= 0 {
		return 0, validationErr("expires_in %q must be a positive number with unit m/h/d", s)
	}

	var d time.Duration

	switch unit {
	case 'm':
		d = time.Duration(num) * time.Minute
	case 'h':
		d = time.Duration(num) * time.Hour
	case 'd':
		d = time.Duration(num) * hoursPerDay * time.Hour
	default:
		return 0, validationErr("expires_in %q has unknown unit %q", s, string(unit))
	}

	if d > maxExpiry {
		return 0, validationErr("expires_in %q exceeds the maximum of 90 days", s)
	}

	return d, nil
}
