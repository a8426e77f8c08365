package reporter

import (
	"fmt"
	"html/template"

	"github.com/fenilsonani/tidyd/pkg/utils"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"bytes":   utils.FormatBytes,
	"percent": percent,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Weekly Downloads Report</title>
    <style>
        body { font-family: Arial, sans-serif; background-color: #f4f4f9; color: #333; margin: 0; padding: 0; }
        .container { width: 90%; max-width: 800px; margin: 20px auto; background: #fff; padding: 20px; border-radius: 10px; box-shadow: 0 0 10px rgba(0, 0, 0, 0.1); }
        h1, h2, p { text-align: center; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        table th, table td { padding: 10px; text-align: left; border: 1px solid #ddd; }
        table th { background-color: #f8f8f8; }
        td.num { text-align: right; }
        .bar { background: #36A2EB; height: 12px; border-radius: 3px; }
        .footer { text-align: center; margin-top: 20px; font-size: 0.9em; color: #555; }
    </style>
</head>
<body>
<div class="container">
    <h1>Weekly Downloads Report</h1>
    <p>Report Date: {{.GeneratedAt.Format "Monday, January 02, 2006"}}</p>
    <p>{{.Root}}</p>

    <h2>Summary</h2>
    <ul>
        <li>Total Files: {{.TotalFiles}}</li>
        <li>Total Size: {{bytes .TotalSize}}</li>
        <li>Unused Files: {{.ArchivedFiles}}</li>
        <li>Unused Size: {{bytes .ArchivedSize}}</li>
        <li>Moved this week: {{.MovedThisWeek}}</li>
        <li>Swept this week: {{.SweptThisWeek}}</li>
    </ul>

    <h2>Category Breakdown</h2>
    <table>
        <tr><th>Category</th><th>Files</th><th>Size</th><th>Share</th><th>Unused</th><th>Unused Size</th><th>Moved (7d)</th><th>Swept (7d)</th></tr>
        {{- $total := .TotalSize}}
        {{- range .Rows}}
        <tr>
            <td>{{.Category}}</td>
            <td class="num">{{.Files}}</td>
            <td class="num">{{bytes .Size}}</td>
            <td><div class="bar" style="width: {{percent .Size $total}}%"></div></td>
            <td class="num">{{.ArchivedFiles}}</td>
            <td class="num">{{bytes .ArchivedSize}}</td>
            <td class="num">{{.MovedThisWeek}}</td>
            <td class="num">{{.SweptThisWeek}}</td>
        </tr>
        {{- end}}
    </table>
    {{- if .Errors}}
    <p>Unreadable entries: {{.Errors}}</p>
    {{- end}}

    <p class="footer">Generated by tidyd</p>
</div>
</body>
</html>
`))

// reportHTML generates the weekly HTML report
func (r *Reporter) reportHTML(report *Report) error {
	if err := htmlTemplate.Execute(r.writer, report); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}
