package output

// htmlTemplate is the page rendered by HTMLRenderer.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - Latency Report</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        :root {
            --bg-secondary: #f8fafc;
            --bg-card: #ffffff;
            --text-primary: #1e293b;
            --text-secondary: #64748b;
            --border-color: #e2e8f0;
            --accent-primary: #3b82f6;
            --accent-success: #22c55e;
            --accent-error: #ef4444;
            --shadow: 0 1px 3px rgba(0, 0, 0, 0.1);
        }

        * { margin: 0; padding: 0; box-sizing: border-box; }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background-color: var(--bg-secondary);
            color: var(--text-primary);
            line-height: 1.6;
        }

        .container { max-width: 1200px; margin: 0 auto; padding: 2rem; }

        .header, .section, .metric-card {
            background: var(--bg-card);
            border-radius: 12px;
            box-shadow: var(--shadow);
        }

        .header {
            padding: 2rem;
            margin-bottom: 2rem;
            display: flex;
            justify-content: space-between;
            align-items: center;
        }

        .header h1 { font-size: 1.75rem; }
        .meta { color: var(--text-secondary); font-size: 0.875rem; }

        .status { padding: 0.5rem 1rem; border-radius: 8px; font-weight: 600; }
        .status.pass { background: rgba(34, 197, 94, 0.1); color: var(--accent-success); }
        .status.fail { background: rgba(239, 68, 68, 0.1); color: var(--accent-error); }

        .metrics-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(160px, 1fr));
            gap: 1rem;
            margin-bottom: 2rem;
        }

        .metric-card { padding: 1.25rem; }
        .metric-card .label { color: var(--text-secondary); font-size: 0.875rem; }
        .metric-card .value { font-size: 1.5rem; font-weight: 700; }

        .section { padding: 1.5rem; margin-bottom: 2rem; }
        .section-title { font-size: 1.25rem; margin-bottom: 1rem; }

        .chart-wrapper { position: relative; height: 360px; }

        .stats-table { width: 100%; border-collapse: collapse; font-size: 0.875rem; }
        .stats-table th, .stats-table td {
            padding: 0.5rem 0.75rem;
            text-align: right;
            border-bottom: 1px solid var(--border-color);
        }
        .stats-table th { color: var(--text-secondary); }

        .threshold-item { padding: 0.5rem 0; border-bottom: 1px solid var(--border-color); }
        .threshold-item.pass .icon { color: var(--accent-success); }
        .threshold-item.fail .icon { color: var(--accent-error); }
        .threshold-item .message { color: var(--text-secondary); font-size: 0.875rem; }
    </style>
</head>
<body>
    <div class="container">
        <header class="header">
            <div>
                <h1>{{.Title}}</h1>
                <div class="meta">
                    <span>unit: {{.Unit}}</span>
                    {{if ne .Scale 1.0}}<span> &middot; scaled by {{.Scale}}</span>{{end}}
                    {{if .Sources}}<span> &middot; {{len .Sources}} source(s)</span>{{end}}
                </div>
            </div>
            {{if .Thresholds}}
            <div class="status {{if .Thresholds.Passed}}pass{{else}}fail{{end}}">
                {{if .Thresholds.Passed}}&#10003; PASSED{{else}}&#10007; FAILED{{end}}
            </div>
            {{end}}
        </header>

        <div class="metrics-grid">
            <div class="metric-card"><div class="label">Count</div><div class="value">{{formatCount .Summary.Count}}</div></div>
            <div class="metric-card"><div class="label">Min</div><div class="value">{{formatValue .Summary.Min}}</div></div>
            <div class="metric-card"><div class="label">Mean</div><div class="value">{{formatValue .Summary.Mean}}</div></div>
            <div class="metric-card"><div class="label">Std Dev</div><div class="value">{{formatValue .Summary.StdDev}}</div></div>
            <div class="metric-card"><div class="label">Max</div><div class="value">{{formatValue .Summary.Max}}</div></div>
            <div class="metric-card"><div class="label">Memory</div><div class="value">{{formatBytes .Summary.MemorySize}}</div></div>
        </div>

        {{if .Percentiles}}
        <section class="section">
            <h2 class="section-title">Percentiles</h2>
            <table class="stats-table">
                <thead><tr>{{range .Percentiles}}<th>p{{.Percentile}}</th>{{end}}</tr></thead>
                <tbody><tr>{{range .Percentiles}}<td>{{formatValue .Value}}</td>{{end}}</tr></tbody>
            </table>
        </section>
        {{end}}

        {{if .Distribution}}
        <section class="section">
            <h2 class="section-title">Percentile Distribution</h2>
            <div class="chart-wrapper"><canvas id="distributionChart"></canvas></div>
        </section>

        <section class="section">
            <h2 class="section-title">Distribution Table</h2>
            <table class="stats-table">
                <thead><tr><th>Value</th><th>Percentile</th><th>Total Count</th><th>1/(1-Percentile)</th></tr></thead>
                <tbody>
                    {{range .Distribution}}
                    <tr>
                        <td>{{formatValue .Value}}</td>
                        <td>{{fractionLabel .Percentile}}</td>
                        <td>{{formatCount .TotalCount}}</td>
                        <td>{{if .InverseTail}}{{printf "%.2f" .InverseTail}}{{end}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </section>
        {{end}}

        {{if .Thresholds}}
        <section class="section">
            <h2 class="section-title">Threshold Results</h2>
            {{range .Thresholds.Results}}
            <div class="threshold-item {{if .Passed}}pass{{else}}fail{{end}}">
                <span class="icon">{{if .Passed}}&#10003;{{else}}&#10007;{{end}}</span>
                <code>{{.Expression}}</code>
                {{if .Message}}<div class="message">{{.Message}}</div>{{end}}
            </div>
            {{end}}
        </section>
        {{end}}
    </div>

    <script>
        const distribution = {{.ChartJSON}};
        if (distribution.length > 0) {
            new Chart(document.getElementById('distributionChart'), {
                type: 'line',
                data: {
                    datasets: [{
                        label: 'Value',
                        data: distribution,
                        borderColor: '#3b82f6',
                        backgroundColor: 'rgba(59, 130, 246, 0.1)',
                        stepped: true,
                        pointRadius: 0,
                    }],
                },
                options: {
                    responsive: true,
                    maintainAspectRatio: false,
                    parsing: false,
                    scales: {
                        x: {
                            type: 'logarithmic',
                            title: { display: true, text: 'Percentile' },
                            ticks: {
                                callback: (v) => (100 - 100 / v).toPrecision(6).replace(/\.?0+$/, '') + '%',
                            },
                        },
                        y: { title: { display: true, text: '{{.Unit}}' }, beginAtZero: true },
                    },
                    plugins: {
                        legend: { display: false },
                        tooltip: { callbacks: { title: (items) => items[0].raw.label } },
                    },
                },
            });
        }
    </script>
</body>
</html>
`
