package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// StatusFile records the date of the last generated report
	StatusFile = "report_status.txt"
	dateLayout = "2006-01-02"
)

// WeekStart returns midnight of the Sunday that starts now's week, in now's location.
func WeekStart(now time.Time) time.Time {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// IsNewWeek reports whether no report has been generated since the start of
// now's week. A missing or unparseable status file counts as a new week.
func IsNewWeek(statusPath string, now time.Time) bool {
	data, err := os.ReadFile(statusPath)
	if err != nil {
		return true
	}
	last, err := time.ParseInLocation(dateLayout, strings.TrimSpace(string(data)), now.Location())
	if err != nil {
		return true
	}
	return last.Before(WeekStart(now))
}

// MarkGenerated writes now's date to the status file.
func MarkGenerated(statusPath string, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(statusPath), 0o755); err != nil {
		return fmt.Errorf("create status directory: %w", err)
	}
	if err := os.WriteFile(statusPath, []byte(now.Format(dateLayout)), 0o644); err != nil {
		return fmt.Errorf("write report status: %w", err)
	}
	return nil
}
