package report

import (
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kanade/embedtags/config"
	"github.com/kanade/embedtags/rating"
)

const pageHTML = `<!DOCTYPE html>
<html lang="ja">
<head>
    <meta charset="UTF-8">
    <title>WD14 Tagger Report - {{.Category}}</title>
    <style>
        body { background-color: #1e1e1e; color: #ddd; font-family: sans-serif; margin: 0; padding: 20px; }
        h1 { border-bottom: 2px solid #444; padding-bottom: 10px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(250px, 1fr)); gap: 20px; }
        .card { background: #2d2d2d; border-radius: 8px; overflow: hidden; padding: 10px; }
        .img-box { width: 100%; height: 250px; display: flex; align-items: center; justify-content: center; background: #000; cursor: pointer; }
        .img-box img { max-width: 100%; max-height: 100%; object-fit: contain; }
        .info { padding-top: 10px; font-size: 12px; }
        .bar-container { display: flex; align-items: center; margin-bottom: 4px; }
        .label { width: 30px; font-weight: bold; }
        .bar-bg { flex-grow: 1; height: 10px; background: #444; border-radius: 5px; overflow: hidden; margin: 0 5px; }
        .bar-fill { height: 100%; }
        .val { width: 40px; text-align: right; }

        .c-gen { color: #4caf50; } .bg-gen { background: #4caf50; }
        .c-sen { color: #ffeb3b; } .bg-sen { background: #ffeb3b; }
        .c-que { color: #e040fb; } .bg-que { background: #e040fb; }
        .c-exp { color: #f44336; } .bg-exp { background: #f44336; }

        /* Modal */
        .modal { display: none; position: fixed; top: 0; left: 0; width: 100%; height: 100%; background: rgba(0,0,0,0.9); z-index: 1000; justify-content: center; align-items: center; }
        .modal img { max-width: 90%; max-height: 90%; }
    </style>
</head>
<body>
    <h1>Report: {{.Category}} ({{.Count}} images)</h1>
    <div class="grid">
{{range .Cards}}        <div class="card">
            <div class="img-box" onclick="show('{{.RelPath}}')">
                <img src="{{.RelPath}}" loading="lazy" alt="img">
            </div>
            <div class="info">
                <div class="bar-container"><span class="label c-gen">Gen</span><div class="bar-bg"><div class="bar-fill bg-gen" style="width:{{.P0}}%"></div></div><span class="val">{{.P0}}%</span></div>
                <div class="bar-container"><span class="label c-sen">Sen</span><div class="bar-bg"><div class="bar-fill bg-sen" style="width:{{.P1}}%"></div></div><span class="val">{{.P1}}%</span></div>
                <div class="bar-container"><span class="label c-que">Que</span><div class="bar-bg"><div class="bar-fill bg-que" style="width:{{.P2}}%"></div></div><span class="val">{{.P2}}%</span></div>
                <div class="bar-container"><span class="label c-exp">Exp</span><div class="bar-bg"><div class="bar-fill bg-exp" style="width:{{.P3}}%"></div></div><span class="val">{{.P3}}%</span></div>
                <div style="margin-top:5px; color:#aaa; overflow:hidden; white-space:nowrap; text-overflow:ellipsis;">{{.Filename}}</div>
            </div>
        </div>
{{end}}    </div>

    <div class="modal" id="modal" onclick="this.style.display='none'">
        <img id="modal-img" src="">
    </div>

    <script>
        function show(src) {
            document.getElementById('modal-img').src = src;
            document.getElementById('modal').style.display = 'flex';
        }
    </script>
</body>
</html>
`

var pageTpl = template.Must(template.New("report").Parse(pageHTML))

type card struct {
	RelPath        string
	Filename       string
	P0, P1, P2, P3 string
}

type page struct {
	Category string
	Count    int
	Cards    []card
}

// Generate renders one report_<folder>.html per rating found in the
// log, then removes the log. Ratings appear in first-seen order and
// image links are relative to the working directory.
func Generate(cfg config.Config) error {
	entries, err := LoadLog()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		slog.Info("Nothing to report")
		return nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	groups := make(map[rating.Rating][]Entry)
	var order []rating.Rating
	for _, e := range entries {
		if _, ok := groups[e.Rating]; !ok {
			order = append(order, e.Rating)
		}
		groups[e.Rating] = append(groups[e.Rating], e)
	}

	for _, rt := range order {
		items := groups[rt]
		folder := cfg.FolderFor(rt)
		name := "report_" + folder + ".html"
		if err := renderPage(name, folder, cwd, items); err != nil {
			return err
		}
		slog.Info("Report written", slog.String("file", name), slog.Int("images", len(items)))
	}

	if err := os.Remove(LogName); err != nil {
		slog.Warn("Could not remove report log", slog.String("error", err.Error()))
	}
	return nil
}

func renderPage(name, category, cwd string, items []Entry) error {
	p := page{Category: category, Count: len(items)}
	for _, e := range items {
		rel := e.Path
		if filepath.IsAbs(e.Path) {
			if r, err := filepath.Rel(cwd, e.Path); err == nil {
				rel = r
			}
		}
		p.Cards = append(p.Cards, card{
			RelPath:  filepath.ToSlash(rel),
			Filename: filepath.Base(e.Path),
			P0:       pct(e.Probs[0]),
			P1:       pct(e.Probs[1]),
			P2:       pct(e.Probs[2]),
			P3:       pct(e.Probs[3]),
		})
	}

	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := pageTpl.Execute(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func pct(v float32) string {
	return strconv.FormatFloat(float64(v)*100, 'f', 1, 32)
}
