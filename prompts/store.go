// Package prompts is the declarative template store spec.md §4.2 requires:
// system prompts are loaded once, by identifier, rather than embedded as
// literal strings in the caller. Mirrors report's go:embed pattern
// (report/html.go) but keyed by identifier since more than one prompt exists.
package prompts

import (
	"embed"
	"fmt"
	"strings"

	"github.com/afschowdhury/excavator-video-analyzer/pkgerrors"
)

//go:embed templates/*.txt
var store embed.FS

// Load resolves identifier (e.g. "vision_system_prompt", the
// config.Config.SystemPromptTemplate default) to its prompt text.
func Load(identifier string) (string, error) {
	data, err := store.ReadFile("templates/" + identifier + ".txt")
	if err != nil {
		return "", pkgerrors.New(pkgerrors.KindPromptTemplateMissing, "prompts", identifier, fmt.Errorf("no template registered for %q: %w", identifier, err))
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", pkgerrors.New(pkgerrors.KindPromptTemplateMissing, "prompts", identifier, fmt.Errorf("template %q is empty", identifier))
	}
	return text, nil
}
