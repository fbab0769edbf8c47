package chart

import (
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// dashboard assembles every renderable chart into a single scrolling page.
// Charts whose inputs are missing are simply absent from the page; when
// nothing at all can be rendered the dashboard is skipped too.
func (g *Generator) dashboard() (string, error) {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	var added int
	for _, b := range builders {
		ch, err := b.build(g)
		if err != nil {
			return "", err
		}
		if ch == nil {
			continue
		}
		page.AddCharts(ch)
		added++
	}
	if added == 0 {
		g.log.Warn("chart input missing, skipping",
			zap.String("chart", dashboardName),
			zap.String("reason", "no chart has inputs yet"))
		return "", nil
	}

	path := filepath.Join(g.outDir, "index.html")
	if err := g.writeHTML(page, path); err != nil {
		return "", eris.Wrap(err, "chart: render dashboard")
	}
	g.log.Info("chart rendered",
		zap.String("chart", dashboardName),
		zap.String("path", path),
		zap.Int("charts", added))
	return path, nil
}
