package utils

import (
	"runtime"
	"unicode"
)

func IsBlank(str string) bool {
	if str == "" {
		return true
	}

	for _, c := range str {
		if !unicode.IsSpace(c) {
			return false
		}
	}
	return true
}

// ShortKey abbreviates a base58 key for log lines, e.g. "9xQe...VfLp".
func ShortKey(key string) string {
	if len(key) <= 10 {
		return key
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// GetNodeDesc describes the running binary for the user agent header.
func GetNodeDesc(version string) string {
	return "ore-miner/" + version + " (" + runtime.GOOS + "-" + runtime.GOARCH + "; " + runtime.Version() + ")"
}
