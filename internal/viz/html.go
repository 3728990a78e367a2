package viz

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/prism-ml/prism/internal/encoder"
)

// HTMLReport writes a self-contained attention report: no external assets,
// no server, opens in any browser. The page embeds every head's weights and
// renders them on a canvas with layer/head/scale selectors and a hover
// readout of individual weights.
func HTMLReport(path string, trace *encoder.Trace, tokens []string, title string) error {
	if trace.NumLayers() == 0 {
		return fmt.Errorf("viz: trace has no layers")
	}
	if title == "" {
		title = "Attention Report"
	}

	labels := reportTokens(trace, tokens)
	tokensJS, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("encoding tokens: %w", err)
	}

	html := fmt.Sprintf(reportTemplate,
		title,
		title,
		trace.NumLayers(),
		trace.NumHeads,
		trace.SeqLen,
		trace.DModel,
		meanEntropy(trace),
		entropyTable(trace),
		string(tokensJS),
		jsWeights(trace),
	)

	return os.WriteFile(path, []byte(html), 0o600)
}

// reportTokens returns one label per position, falling back to token ids
// when no labels are given.
func reportTokens(trace *encoder.Trace, tokens []string) []string {
	labels := make([]string, trace.SeqLen)
	ids := trace.Tokens(0)
	for i := range labels {
		if i < len(tokens) && tokens[i] != "" {
			labels[i] = tokens[i]
		} else {
			labels[i] = strconv.Itoa(int(ids[i]))
		}
	}
	return labels
}

// jsWeights formats all attention weights as a nested JS array indexed
// [layer][head][query][key].
func jsWeights(trace *encoder.Trace) string {
	var sb strings.Builder
	sb.WriteString("[")
	for l := 0; l < trace.NumLayers(); l++ {
		if l > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("[")
		for h := 0; h < trace.NumHeads; h++ {
			if h > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("[")
			rows := trace.Weights(l, h)
			for i, row := range rows {
				if i > 0 {
					sb.WriteString(",")
				}
				sb.WriteString("[")
				for j, w := range row {
					if j > 0 {
						sb.WriteString(",")
					}
					fmt.Fprintf(&sb, "%.5f", w)
				}
				sb.WriteString("]")
			}
			sb.WriteString("]")
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}

func meanEntropy(trace *encoder.Trace) float64 {
	var total float64
	for l := 0; l < trace.NumLayers(); l++ {
		for h := 0; h < trace.NumHeads; h++ {
			total += trace.Entropy(l, h)
		}
	}
	return total / float64(trace.NumLayers()*trace.NumHeads)
}

// entropyTable renders the per-head mean entropy as an HTML table with
// viridis-shaded cells. Low entropy (focused heads) shows dark, high
// entropy (diffuse heads) bright.
func entropyTable(trace *encoder.Trace) string {
	maxEnt := math.Log(float64(trace.SeqLen))

	var sb strings.Builder
	sb.WriteString("<tr><th></th>")
	for h := 0; h < trace.NumHeads; h++ {
		fmt.Fprintf(&sb, "<th>H%d</th>", h)
	}
	sb.WriteString("</tr>\n")

	for l := 0; l < trace.NumLayers(); l++ {
		fmt.Fprintf(&sb, "<tr><th>L%d</th>", l)
		for h := 0; h < trace.NumHeads; h++ {
			ent := trace.Entropy(l, h)
			t := 0.0
			if maxEnt > 0 {
				t = ent / maxEnt
			}
			c := Viridis(t)
			text := "#c9d1d9"
			if luminance(c.R, c.G, c.B) > 140 {
				text = "#0d1117"
			}
			fmt.Fprintf(&sb, `<td style="background:%s;color:%s">%.2f</td>`, hexColor(c), text, ent)
		}
		sb.WriteString("</tr>\n")
	}
	return sb.String()
}

func luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// reportTemplate is filled by HTMLReport. Placeholders in order: page
// title, heading, layers, heads, seq len, d_model, mean entropy, entropy
// table rows, tokens JSON, weights JSON.
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'Roboto', sans-serif;
            background: #0d1117;
            color: #c9d1d9;
            padding: 20px;
            line-height: 1.6;
        }
        .container { max-width: 980px; margin: 0 auto; }
        h1 { font-size: 28px; margin-bottom: 10px; color: #58a6ff; }
        .subtitle { color: #8b949e; margin-bottom: 30px; font-size: 14px; }
        .stats {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(140px, 1fr));
            gap: 15px;
            margin-bottom: 30px;
        }
        .stat-card {
            background: #161b22;
            border: 1px solid #30363d;
            border-radius: 6px;
            padding: 15px;
        }
        .stat-label {
            font-size: 12px;
            color: #8b949e;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 5px;
        }
        .stat-value { font-size: 24px; font-weight: 600; color: #58a6ff; }
        .controls {
            display: flex;
            gap: 20px;
            align-items: center;
            margin-bottom: 15px;
            font-size: 14px;
        }
        .controls select {
            background: #161b22;
            color: #c9d1d9;
            border: 1px solid #30363d;
            border-radius: 4px;
            padding: 4px 8px;
            margin-left: 6px;
        }
        .readout { color: #58a6ff; font-family: monospace; min-height: 1em; }
        .chart-container {
            background: #161b22;
            border: 1px solid #30363d;
            border-radius: 6px;
            padding: 20px;
            margin-bottom: 20px;
        }
        .chart-title { font-size: 18px; font-weight: 600; margin-bottom: 15px; }
        canvas { width: 100%%; display: block; }
        table { border-collapse: collapse; font-family: monospace; font-size: 13px; }
        th { color: #8b949e; font-weight: normal; padding: 4px 8px; }
        td { padding: 4px 10px; text-align: center; }
        .footer {
            text-align: center;
            color: #8b949e;
            font-size: 12px;
            margin-top: 40px;
            padding-top: 20px;
            border-top: 1px solid #30363d;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <div class="subtitle">Self-attention weights per layer and head. Rows are queries, columns are keys.</div>

        <div class="stats">
            <div class="stat-card">
                <div class="stat-label">Layers</div>
                <div class="stat-value">%d</div>
            </div>
            <div class="stat-card">
                <div class="stat-label">Heads</div>
                <div class="stat-value">%d</div>
            </div>
            <div class="stat-card">
                <div class="stat-label">Sequence</div>
                <div class="stat-value">%d</div>
            </div>
            <div class="stat-card">
                <div class="stat-label">d_model</div>
                <div class="stat-value">%d</div>
            </div>
            <div class="stat-card">
                <div class="stat-label">Mean entropy</div>
                <div class="stat-value">%.3f</div>
            </div>
        </div>

        <div class="controls">
            <label>Layer<select id="layerSel"></select></label>
            <label>Head<select id="headSel"></select></label>
            <label>Scale<select id="normSel">
                <option value="none">absolute</option>
                <option value="row">row</option>
                <option value="global">global</option>
            </select></label>
            <span id="readout" class="readout"></span>
        </div>
        <div class="chart-container">
            <canvas id="attn"></canvas>
        </div>

        <div class="chart-container">
            <div class="chart-title">Mean attention entropy (nats)</div>
            <table>
%s
            </table>
        </div>

        <div class="footer">Generated by prism</div>
    </div>

    <script>
        const tokens = %s;
        const weights = %s;

        const anchors = [[68,1,84],[72,40,120],[62,74,137],[49,104,142],[38,130,142],
                         [31,158,137],[53,183,121],[109,205,89],[180,222,44],[253,231,37]];
        function viridis(t) {
            t = Math.min(1, Math.max(0, t));
            const pos = t * (anchors.length - 1);
            const i = Math.min(anchors.length - 2, Math.floor(pos));
            const f = pos - i;
            const r = Math.round(anchors[i][0] + f * (anchors[i+1][0] - anchors[i][0]));
            const g = Math.round(anchors[i][1] + f * (anchors[i+1][1] - anchors[i][1]));
            const b = Math.round(anchors[i][2] + f * (anchors[i+1][2] - anchors[i][2]));
            return 'rgb(' + r + ',' + g + ',' + b + ')';
        }

        function normalized(m, mode) {
            if (mode === 'none') return m;
            const out = m.map(function(row) { return row.slice(); });
            if (mode === 'row') {
                for (const row of out) {
                    const mx = Math.max.apply(null, row);
                    if (mx > 0) for (let j = 0; j < row.length; j++) row[j] /= mx;
                }
            } else {
                let mx = 0;
                for (const row of out) mx = Math.max(mx, Math.max.apply(null, row));
                if (mx > 0) for (const row of out) for (let j = 0; j < row.length; j++) row[j] /= mx;
            }
            return out;
        }

        const layerSel = document.getElementById('layerSel');
        const headSel = document.getElementById('headSel');
        const normSel = document.getElementById('normSel');
        const canvas = document.getElementById('attn');

        function fillSelect(sel, n, prefix) {
            for (let i = 0; i < n; i++) {
                const o = document.createElement('option');
                o.value = i;
                o.textContent = prefix + i;
                sel.appendChild(o);
            }
        }
        fillSelect(layerSel, weights.length, 'L');
        fillSelect(headSel, weights[0].length, 'H');

        let cellSize = 0, marginPx = 0;

        function draw() {
            const m = normalized(weights[layerSel.value][headSel.value], normSel.value);
            const n = m.length;
            const ctx = canvas.getContext('2d');
            const dpr = window.devicePixelRatio || 1;
            const rect = canvas.getBoundingClientRect();
            canvas.width = rect.width * dpr;
            canvas.height = rect.width * dpr;
            canvas.style.height = rect.width + 'px';
            ctx.scale(dpr, dpr);

            const size = rect.width;
            marginPx = 80;
            cellSize = (size - marginPx - 10) / n;

            ctx.fillStyle = '#161b22';
            ctx.fillRect(0, 0, size, size);
            for (let i = 0; i < n; i++) {
                for (let j = 0; j < n; j++) {
                    ctx.fillStyle = viridis(m[i][j]);
                    ctx.fillRect(marginPx + j * cellSize, marginPx + i * cellSize,
                                 cellSize + 0.5, cellSize + 0.5);
                }
            }

            ctx.fillStyle = '#8b949e';
            ctx.font = '11px monospace';
            for (let i = 0; i < n; i++) {
                ctx.textAlign = 'right';
                ctx.fillText(tokens[i], marginPx - 6, marginPx + (i + 0.7) * cellSize);
                ctx.save();
                ctx.translate(marginPx + (i + 0.7) * cellSize, marginPx - 6);
                ctx.rotate(-Math.PI / 4);
                ctx.textAlign = 'left';
                ctx.fillText(tokens[i], 0, 0);
                ctx.restore();
            }
        }

        canvas.onmousemove = function(e) {
            const rect = canvas.getBoundingClientRect();
            const j = Math.floor((e.clientX - rect.left - marginPx) / cellSize);
            const i = Math.floor((e.clientY - rect.top - marginPx) / cellSize);
            const readout = document.getElementById('readout');
            const n = tokens.length;
            if (i >= 0 && i < n && j >= 0 && j < n) {
                const w = weights[layerSel.value][headSel.value][i][j];
                readout.textContent = tokens[i] + ' → ' + tokens[j] + ': ' + w.toFixed(4);
            } else {
                readout.textContent = '';
            }
        };

        layerSel.onchange = draw;
        headSel.onchange = draw;
        normSel.onchange = draw;
        window.onload = draw;
        window.onresize = draw;
    </script>
</body>
</html>
`
