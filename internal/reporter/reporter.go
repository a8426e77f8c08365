package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/tidyd/pkg/utils"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatHTML  OutputFormat = "html"
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatHTML, FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
	}
}

// Report renders r in the configured format
func (r *Reporter) Report(report *Report) error {
	switch r.format {
	case FormatHTML:
		return r.reportHTML(report)
	case FormatTable:
		return r.reportTable(report)
	case FormatJSON:
		return r.reportJSON(report)
	case FormatYAML:
		return r.reportYAML(report)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// reportTable generates a table report
func (r *Reporter) reportTable(report *Report) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("tidyd report for %s (%s)", report.Root, report.GeneratedAt.Format("2006-01-02 15:04"))
	tw.AppendHeader(table.Row{"Category", "Files", "Size", "Unused", "Unused Size", "Moved (7d)", "Swept (7d)"})

	for _, row := range report.Rows {
		tw.AppendRow(table.Row{
			row.Category,
			row.Files,
			utils.FormatBytes(row.Size),
			row.ArchivedFiles,
			utils.FormatBytes(row.ArchivedSize),
			row.MovedThisWeek,
			row.SweptThisWeek,
		})
	}
	tw.AppendFooter(table.Row{
		"Total",
		report.TotalFiles,
		utils.FormatBytes(report.TotalSize),
		report.ArchivedFiles,
		utils.FormatBytes(report.ArchivedSize),
		report.MovedThisWeek,
		report.SweptThisWeek,
	})

	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignLeft}}
	for i := 2; i <= 7; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	if _, err := fmt.Fprintln(r.writer, tw.Render()); err != nil {
		return err
	}
	if report.Errors > 0 {
		_, err := fmt.Fprintf(r.writer, "\nUnreadable entries: %d\n", report.Errors)
		return err
	}
	return nil
}

type encodedReport struct {
	Report                `yaml:",inline"`
	Timestamp             string `json:"timestamp" yaml:"timestamp"`
	TotalSizeFormatted    string `json:"total_size_formatted" yaml:"total_size_formatted"`
	ArchivedSizeFormatted string `json:"archived_size_formatted" yaml:"archived_size_formatted"`
}

func encode(report *Report) encodedReport {
	return encodedReport{
		Report:                *report,
		Timestamp:             report.GeneratedAt.Format(time.RFC3339),
		TotalSizeFormatted:    utils.FormatBytes(report.TotalSize),
		ArchivedSizeFormatted: utils.FormatBytes(report.ArchivedSize),
	}
}

// reportJSON generates a JSON report
func (r *Reporter) reportJSON(report *Report) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(encode(report))
}

// reportYAML generates a YAML report
func (r *Reporter) reportYAML(report *Report) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(encode(report))
}

// SaveToFile saves the report to a file, creating parent directories.
func SaveToFile(report *Report, path string, format OutputFormat) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reporter := New(file, format)
	if err := reporter.Report(report); err != nil {
		return err
	}
	return file.Close()
}

// FileName is the report file name for format, e.g. Weekly_Report.html.
func FileName(format OutputFormat) string {
	ext := string(format)
	if format == FormatTable {
		ext = "txt"
	}
	return "Weekly_Report." + ext
}

func percent(part, whole int64) string {
	if whole <= 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(part)*100/float64(whole), 'f', 1, 64)
}
