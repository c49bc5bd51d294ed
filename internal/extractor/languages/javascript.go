package languages

import (
	"cortex/internal/extractor"

	"github.com/smacker/go-tree-sitter/javascript"
)

func RegisterJavaScript(r *extractor.Registry) {
	r.Register("javascript", &extractor.LanguageSpec{
		Language:   javascript.GetLanguage(),
		Extensions: []string{"js", "jsx", "mjs", "cjs"},
	})
}
