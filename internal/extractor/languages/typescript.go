package languages

import (
	"cortex/internal/extractor"

	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func RegisterTypeScript(r *extractor.Registry) {
	r.Register("typescript", &extractor.LanguageSpec{
		Language:   typescript.GetLanguage(),
		Extensions: []string{"ts", "tsx"},
	})
}
