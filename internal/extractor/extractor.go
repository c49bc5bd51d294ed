package extractor

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Unit kinds stored in vector metadata.
const (
	KindFunction = "function"
	KindClass    = "class"
)

// ErrSyntax marks a file whose parse tree contains syntax errors. Extraction
// is all-or-nothing per file; callers skip the file and move on.
var ErrSyntax = errors.New("source contains syntax errors")

// CodeUnit is a named function or class lifted out of a source file.
type CodeUnit struct {
	ID         string // resolved unit name
	Kind       string // KindFunction or KindClass
	FilePath   string
	StartLine  int
	EndLine    int
	SourceText string
	Embedding  []float32 // nil until an embedder attaches one
}

// Extractor parses source files with tree-sitter and extracts code units.
type Extractor struct {
	registry *Registry
}

// New creates an extractor backed by the given registry.
func New(r *Registry) *Extractor {
	return &Extractor{registry: r}
}

// Extract parses the source and returns every named function and class in
// traversal order. If no grammar is registered for the file, it returns nil.
func (e *Extractor) Extract(ctx context.Context, path string, src []byte) ([]CodeUnit, error) {
	spec, _ := e.registry.Lookup(path)
	if spec == nil {
		return nil, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(spec.Language)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("parse %s: %w", path, ErrSyntax)
	}

	// Iterative preorder walk. Minified sources nest hundreds of levels
	// deep, so the call stack is off limits.
	var units []CodeUnit
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if unit, ok := unitFor(n, path, src); ok {
			units = append(units, unit)
		}

		// Push children in reverse so they pop in source order.
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.Child(i))
		}
	}
	return units, nil
}

// unitFor turns a node into a CodeUnit when it is a function or class shape
// with a resolvable name. Anonymous shapes are dropped.
func unitFor(n *sitter.Node, path string, src []byte) (CodeUnit, bool) {
	if !n.IsNamed() {
		return CodeUnit{}, false
	}

	var kind string
	switch n.Type() {
	case "function_declaration", "arrow_function", "function_expression", "function":
		// The JS grammar renamed the function-expression node from
		// "function" to "function_expression"; accept both.
		kind = KindFunction
	case "class_declaration":
		kind = KindClass
	default:
		return CodeUnit{}, false
	}

	name := resolveName(n, src)
	if name == "" {
		return CodeUnit{}, false
	}

	return CodeUnit{
		ID:         name,
		Kind:       kind,
		FilePath:   path,
		StartLine:  int(n.StartPoint().Row) + 1,
		EndLine:    int(n.EndPoint().Row) + 1,
		SourceText: n.Content(src),
	}, true
}

// resolveName finds a unit's name: the node's own name field, then the
// variable binding it is assigned to, then the object property key it is
// stored under. Empty means anonymous.
func resolveName(n *sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}

	parent := n.Parent()
	if parent == nil {
		return ""
	}
	switch parent.Type() {
	case "variable_declarator":
		if name := parent.ChildByFieldName("name"); name != nil {
			return name.Content(src)
		}
	case "pair":
		if key := parent.ChildByFieldName("key"); key != nil {
			return propertyName(key, src)
		}
	}
	return ""
}

// propertyName unquotes string keys so {"greet": ...} and {greet: ...}
// resolve to the same name.
func propertyName(key *sitter.Node, src []byte) string {
	content := key.Content(src)
	if key.Type() == "string" && len(content) >= 2 {
		return content[1 : len(content)-1]
	}
	return content
}
