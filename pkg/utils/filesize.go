// Package utils holds small formatting helpers shared by the reports and the CLI.
package utils

import "fmt"

const unit = 1024

// FormatBytes renders a byte count with two decimals in the largest binary
// unit that keeps the value at or above 1 ("3.00 KB", "1.50 GB"). Counts
// below 1 KB are printed as whole bytes; negative counts as "0 B".
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "0 B"
	}
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < len("KMGTP")-1; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTP"[exp])
}
