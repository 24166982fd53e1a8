package report

import (
	_ "embed"
	"html/template"
	"strings"
	"time"

	"github.com/afschowdhury/excavator-video-analyzer/domain"
)

//go:embed templates/report.html.tmpl
var reportTemplate string

// htmlTemplateData is the value fed into the embedded template; it mirrors
// Input without the Template identifier. A zero GeneratedAt is skipped by
// the template's {{.GeneratedAt.IsZero}} guard.
type htmlTemplateData struct {
	SourceID    string
	GeneratedAt time.Time
	Cycles      []domain.Cycle
	Statistics  domain.CycleStatistics
	Telemetry   domain.TelemetryRecord
}

// renderHTML fills the embedded html/template report, grounded on the
// teacher's go:embed + template.FuncMap pattern.
func (g *Generator) renderHTML(in Input) (domain.ReportArtifact, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatMMSS":    domain.FormatMMSS,
		"formatSeconds": domain.FormatSecondsOneDecimal,
	}).Parse(reportTemplate)
	if err != nil {
		return domain.ReportArtifact{}, err
	}

	data := htmlTemplateData{
		SourceID:    in.SourceID,
		GeneratedAt: in.GeneratedAt,
		Cycles:      in.Cycles,
		Statistics:  in.Statistics,
		Telemetry:   in.Telemetry,
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return domain.ReportArtifact{}, err
	}
	return domain.ReportArtifact{Bytes: []byte(buf.String()), MIMEType: "text/html"}, nil
}
