package telemetry

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// parenLiteral matches a PDF string literal written between parentheses, as
// emitted by Tj/TJ text-showing operators in a page content stream. pdfcpu
// extracts raw content streams rather than reconstructed text (it is a
// structure/manipulation library, not a text-extraction one), so telemetry
// PDFs are read by pulling every string literal out of the operator stream
// and joining them in stream order — a reasonable approximation for the
// short, single-column label/value reports telemetry PDFs contain.
var parenLiteral = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)

// extractText reads every page's content stream from a PDF and returns the
// concatenated text runs found in Tj/TJ string literals.
func extractText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	readers, err := api.ExtractContent(f, nil)
	if err != nil {
		return "", fmt.Errorf("extract pdf content streams: %w", err)
	}

	var sb strings.Builder
	for _, r := range readers {
		if r == nil {
			continue
		}
		raw, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read content stream: %w", err)
		}
		for _, match := range parenLiteral.FindAllSubmatch(raw, -1) {
			sb.Write(unescapePDFString(match[1]))
			sb.WriteByte(' ')
		}
	}
	return sb.String(), nil
}

// unescapePDFString resolves the handful of backslash escapes PDF string
// literals use (\\, \(, \)) so label text survives extraction intact.
func unescapePDFString(raw []byte) []byte {
	out := bytes.NewBuffer(make([]byte, 0, len(raw)))
	scanner := bufio.NewReader(bytes.NewReader(raw))
	for {
		b, err := scanner.ReadByte()
		if err != nil {
			break
		}
		if b == '\\' {
			next, err := scanner.ReadByte()
			if err != nil {
				break
			}
			switch next {
			case 'n':
				out.WriteByte('\n')
			case 'r':
				out.WriteByte('\r')
			case 't':
				out.WriteByte('\t')
			default:
				out.WriteByte(next)
			}
			continue
		}
		out.WriteByte(b)
	}
	return out.Bytes()
}
