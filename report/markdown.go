package report

import (
	"fmt"
	"strings"

	"github.com/afschowdhury/excavator-video-analyzer/domain"
)

// renderMarkdown produces a byte-identical-given-identical-input markdown
// report, grounded on the teacher's section-writer pattern
// (write*Section(content *strings.Builder, ...) + fmt.Fprintf).
func (g *Generator) renderMarkdown(in Input) (domain.ReportArtifact, error) {
	var content strings.Builder

	writeHeaderSection(&content, in)
	writeCycleTableSection(&content, in.Cycles)
	writeStatisticsSection(&content, in.Statistics)
	writeTelemetrySection(&content, in.Telemetry)

	return domain.ReportArtifact{Bytes: []byte(content.String()), MIMEType: "text/markdown"}, nil
}

func writeHeaderSection(content *strings.Builder, in Input) {
	fmt.Fprintf(content, "# Excavator Cycle Report: %s\n\n", in.SourceID)
	if !in.GeneratedAt.IsZero() {
		fmt.Fprintf(content, "_Generated %s_\n\n", in.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}
}

func writeCycleTableSection(content *strings.Builder, cycles []domain.Cycle) {
	content.WriteString("## Cycles\n\n")
	if len(cycles) == 0 {
		content.WriteString("No cycles detected.\n\n")
		return
	}

	content.WriteString("| # | Start | End | Duration (s) | Status | Note |\n")
	content.WriteString("|---|-------|-----|---------------|--------|------|\n")
	for _, c := range cycles {
		fmt.Fprintf(content, "| %d | %s | %s | %s | %s | %s |\n",
			c.Number,
			domain.FormatMMSS(c.Start),
			domain.FormatMMSS(c.End),
			domain.FormatSecondsOneDecimal(c.Duration),
			c.Completeness,
			c.Note,
		)
	}
	content.WriteString("\n")
}

func writeStatisticsSection(content *strings.Builder, stats domain.CycleStatistics) {
	content.WriteString("## Statistics\n\n")
	fmt.Fprintf(content, "- **Count**: %d\n", stats.Count)
	fmt.Fprintf(content, "- **Mean duration**: %s s\n", domain.FormatSecondsOneDecimal(stats.Mean))
	fmt.Fprintf(content, "- **Min duration**: %s s\n", domain.FormatSecondsOneDecimal(stats.Min))
	fmt.Fprintf(content, "- **Max duration**: %s s\n", domain.FormatSecondsOneDecimal(stats.Max))
	fmt.Fprintf(content, "- **Std deviation**: %s s\n", domain.FormatSecondsOneDecimal(stats.StdDev))
	fmt.Fprintf(content, "- **Specific average**: %s s\n", domain.FormatSecondsOneDecimal(stats.SpecificAverage))
	fmt.Fprintf(content, "- **Approximate average**: %s s\n", domain.FormatSecondsOneDecimal(stats.ApproximateAverage))
	fmt.Fprintf(content, "- **Idle per cycle**: %s s\n\n", domain.FormatSecondsOneDecimal(stats.IdlePerCycle))
}

func writeTelemetrySection(content *strings.Builder, t domain.TelemetryRecord) {
	if !t.Found {
		return
	}
	content.WriteString("## Telemetry\n\n")
	fmt.Fprintf(content, "- **Fuel burned**: %.1f L\n", t.FuelBurnedLitres)
	fmt.Fprintf(content, "- **Time swinging left**: %s s\n", domain.FormatSecondsOneDecimal(t.TimeSwingingLeft))
	fmt.Fprintf(content, "- **Time swinging right**: %s s\n\n", domain.FormatSecondsOneDecimal(t.TimeSwingingRight))
}
