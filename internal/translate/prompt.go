package translate

import (
	"fmt"
	"strings"

	"github.com/foodlang/tarjama/internal/models"
)

// BuildPrompt renders the augmented translation prompt: the retrieved
// glossary entries as numbered context lines followed by the text to
// translate. With no retrieved entries the context section is empty and the
// model translates unaided.
func BuildPrompt(text string, hints []models.RetrievedEntry) string {
	var context strings.Builder
	for i, h := range hints {
		if i > 0 {
			context.WriteByte('\n')
		}
		fmt.Fprintf(&context, "%d. %s = %s", i+1, h.Entry.Source, h.Entry.Target)
	}

	return fmt.Sprintf(`You are FoodLang AI, an expert Arabic-English food packaging translator.
Use the glossary context below to ensure consistent, regulatory-compliant translations.

Glossary Context (most relevant matches):
%s

Translate the following text naturally and accurately:
"%s"

Provide only the translation (no explanation or additional text).`, context.String(), text)
}
