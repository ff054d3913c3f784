package utils

import (
	"fmt"
	"strconv"
	"strings"
)

const byteUnitStep = 1024

var byteUnitSuffixes = [...]string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize renders a snapshot file size for extraction logs, e.g. "512b", "1.5kb", "12mb".
// Sizes under ten units keep one decimal place; negative sizes render as "0b".
func FormatFileSize(sizeBytes int64) string {
	if sizeBytes < byteUnitStep {
		if sizeBytes < 0 {
			sizeBytes = 0
		}
		return strconv.FormatInt(sizeBytes, 10) + byteUnitSuffixes[0]
	}
	scaled := float64(sizeBytes)
	suffixIndex := 0
	for scaled >= byteUnitStep && suffixIndex < len(byteUnitSuffixes)-1 {
		scaled /= byteUnitStep
		suffixIndex++
	}
	precision := 0
	if scaled < 10 && scaled != float64(int64(scaled)) {
		precision = 1
	}
	rendered := strings.TrimSuffix(strconv.FormatFloat(scaled, 'f', precision, 64), ".0")
	return rendered + byteUnitSuffixes[suffixIndex]
}

// DescribeOversize explains why a file was left out of the README context, e.g. "1.5mb exceeds 1mb".
func DescribeOversize(sizeBytes int64, limitBytes int64) string {
	return fmt.Sprintf("%s exceeds %s", FormatFileSize(sizeBytes), FormatFileSize(limitBytes))
}
