package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/quiclab/streamscope/internal/aggregate"
	"github.com/quiclab/streamscope/internal/metrics"
)

// HTMLTimelineData contains all data needed for the HTML timeline template.
type HTMLTimelineData struct {
	GeneratedAt string
	Summary     metrics.Summary
	Streams     []streamRow
	GapsJSON    string
	HasGaps     bool
}

type streamRow struct {
	ID          uint64
	Deadline    string
	SetAt       string
	CompletedAt string
	Dropped     string
	Blocked     int
}

type gapPoint struct {
	StreamID     uint64 `json:"stream_id"`
	TimeMs       int64  `json:"time_ms"`
	BytesDropped uint64 `json:"bytes_dropped"`
}

// GenerateHTMLTimeline generates a standalone HTML page with a drop-gap
// timeline chart and the per-stream detail table. Gap events are embedded as
// JSON so the page needs no server to render.
func GenerateHTMLTimeline(w io.Writer, records []*aggregate.StreamRecord, gaps []aggregate.GapEvent, s metrics.Summary) error {
	points := make([]gapPoint, 0, len(gaps))
	for _, g := range gaps {
		points = append(points, gapPoint{
			StreamID:     g.StreamID,
			TimeMs:       int64(g.Time),
			BytesDropped: g.BytesDropped,
		})
	}
	gapsJSON, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("failed to marshal gap events: %w", err)
	}

	rows := make([]streamRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, streamRow{
			ID:          rec.ID,
			Deadline:    deadlineCell(rec),
			SetAt:       clockCell(rec.SetTime),
			CompletedAt: completionCell(rec),
			Dropped:     groupThousands(rec.BytesDropped),
			Blocked:     rec.BlockedEvents,
		})
	}

	data := HTMLTimelineData{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Summary:     s,
		Streams:     rows,
		GapsJSON:    string(gapsJSON),
		HasGaps:     len(points) > 0,
	}

	tmpl, err := template.New("timeline").Funcs(template.FuncMap{
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.1f", f)
		},
		"formatPercent": func(rate float64) string {
			return fmt.Sprintf("%.1f", rate*100)
		},
		"formatBytes": groupThousands,
	}).Parse(timelineTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

const timelineTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Streamscope Deadline Analysis</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 {
            font-size: 2rem;
            margin-bottom: 10px;
        }
        header .meta {
            opacity: 0.9;
            font-size: 0.9rem;
        }
        .content {
            padding: 40px;
        }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #667eea;
        }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value {
            font-size: 2rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .card .subvalue {
            font-size: 0.85rem;
            color: #6c757d;
            margin-top: 5px;
        }
        .card.success {
            border-left-color: #10b981;
        }
        .card.error {
            border-left-color: #ef4444;
        }
        .section {
            margin-bottom: 40px;
        }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        .chart-container {
            background: white;
            border-radius: 8px;
            padding: 20px;
            margin-bottom: 30px;
            border: 1px solid #e5e7eb;
        }
        .chart {
            width: 100%;
            height: 300px;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            background: white;
        }
        th, td {
            text-align: left;
            padding: 12px;
            border-bottom: 1px solid #e5e7eb;
        }
        th {
            background: #f8f9fa;
            font-weight: 600;
            color: #4b5563;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 0.5px;
        }
        tr:hover {
            background: #f8f9fa;
        }
        .margin-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
            gap: 15px;
            margin-top: 20px;
        }
        .margin-item {
            background: #f8f9fa;
            padding: 15px;
            border-radius: 6px;
            text-align: center;
        }
        .margin-item .label {
            font-size: 0.85rem;
            color: #6c757d;
            margin-bottom: 5px;
        }
        .margin-item .value {
            font-size: 1.3rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .no-data {
            text-align: center;
            padding: 40px;
            color: #6c757d;
            font-style: italic;
        }
    </style>
    <script src="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.iife.min.js"></script>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.min.css">
</head>
<body>
    <div class="container">
        <header>
            <h1>Streamscope Deadline Analysis</h1>
            <div class="meta">Generated: {{.GeneratedAt}}</div>
        </header>

        <div class="content">
            <!-- Summary Cards -->
            <div class="grid">
                <div class="card">
                    <h3>Total Streams</h3>
                    <div class="value">{{.Summary.TotalStreams}}</div>
                    <div class="subvalue">{{.Summary.StreamsWithDeadlines}} with deadlines</div>
                </div>
                <div class="card success">
                    <h3>Compliance Rate</h3>
                    <div class="value">{{formatPercent .Summary.ComplianceRate}}%</div>
                    <div class="subvalue">{{.Summary.DeadlinesMet}} of {{.Summary.StreamsWithDeadlines}} met</div>
                </div>
                <div class="card error">
                    <h3>Bytes Dropped</h3>
                    <div class="value">{{formatBytes .Summary.TotalBytesDropped}}</div>
                    <div class="subvalue">{{.Summary.GapEvents}} gap events</div>
                </div>
                <div class="card">
                    <h3>Completion Rate</h3>
                    <div class="value">{{formatPercent .Summary.CompletionRate}}%</div>
                    <div class="subvalue">{{.Summary.CompletedStreams}} completed</div>
                </div>
            </div>

            <!-- Gap Timeline -->
            <div class="section">
                <h2>Drop Gaps Over Time</h2>
                {{if .HasGaps}}
                <div class="chart-container">
                    <div id="gap-chart" class="chart"></div>
                </div>
                {{else}}
                <div class="no-data">No drop gaps observed</div>
                {{end}}
            </div>

            <!-- Margin Statistics -->
            {{if gt .Summary.DeadlinesMet 0}}
            <div class="section">
                <h2>Deadline Margin (ms)</h2>
                <div class="margin-grid">
                    <div class="margin-item">
                        <div class="label">Mean</div>
                        <div class="value">{{formatFloat .Summary.AvgDeadlineMarginMs}}</div>
                    </div>
                    <div class="margin-item">
                        <div class="label">P50</div>
                        <div class="value">{{formatFloat .Summary.MarginP50Ms}}</div>
                    </div>
                    <div class="margin-item">
                        <div class="label">P90</div>
                        <div class="value">{{formatFloat .Summary.MarginP90Ms}}</div>
                    </div>
                    <div class="margin-item">
                        <div class="label">P99</div>
                        <div class="value">{{formatFloat .Summary.MarginP99Ms}}</div>
                    </div>
                </div>
            </div>
            {{end}}

            <!-- Per-Stream Breakdown -->
            {{if .Streams}}
            <div class="section">
                <h2>Per-Stream Breakdown</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Stream</th>
                            <th>Deadline</th>
                            <th>Set At</th>
                            <th>Completed At</th>
                            <th>Bytes Dropped</th>
                            <th>Blocked</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Streams}}
                        <tr>
                            <td><strong>{{.ID}}</strong></td>
                            <td>{{.Deadline}}</td>
                            <td>{{.SetAt}}</td>
                            <td>{{.CompletedAt}}</td>
                            <td>{{.Dropped}}</td>
                            <td>{{.Blocked}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>

    {{if .HasGaps}}
    <script>
        const gapsJSON = {{.GapsJSON}};
        const gaps = JSON.parse(gapsJSON);

        if (gaps && gaps.length > 0) {
            const times = gaps.map(g => g.time_ms / 1000);
            const bytes = gaps.map(g => g.bytes_dropped);

            new uPlot({
                title: "Bytes Dropped per Gap Event",
                width: document.getElementById('gap-chart').offsetWidth,
                height: 300,
                scales: { x: { time: false } },
                series: [
                    { label: "Time (s)" },
                    {
                        label: "Bytes",
                        stroke: "#ef4444",
                        fill: "rgba(239, 68, 68, 0.1)",
                        width: 2,
                        paths: uPlot.paths ? uPlot.paths.points() : undefined,
                        points: { show: true, size: 6 }
                    }
                ],
                axes: [
                    { label: "Run clock (seconds)" },
                    { label: "Bytes dropped" }
                ]
            }, [times, bytes], document.getElementById('gap-chart'));
        }
    </script>
    {{end}}
</body>
</html>
`
