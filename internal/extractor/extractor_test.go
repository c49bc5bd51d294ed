package extractor_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/internal/extractor"
	"cortex/internal/extractor/languages"
)

func newTestExtractor() *extractor.Extractor {
	reg := extractor.NewRegistry()
	languages.RegisterJavaScript(reg)
	languages.RegisterTypeScript(reg)
	return extractor.New(reg)
}

func TestExtractFunctionDeclaration(t *testing.T) {
	e := newTestExtractor()

	units, err := e.Extract(context.Background(), "math.js", []byte("function add(a, b) { return a + b; }"))
	require.NoError(t, err)
	require.Len(t, units, 1)

	assert.Equal(t, "add", units[0].ID)
	assert.Equal(t, extractor.KindFunction, units[0].Kind)
	assert.Equal(t, "math.js", units[0].FilePath)
	assert.Equal(t, 1, units[0].StartLine)
	assert.Equal(t, "function add(a, b) { return a + b; }", units[0].SourceText)
}

func TestExtractCountsFunctionsAndClasses(t *testing.T) {
	src := `
function one() { return 1; }
function two() { return 2; }
class Stack {
  push(x) { this.items.push(x); }
  pop() { return this.items.pop(); }
}
class Queue {}
`
	e := newTestExtractor()
	units, err := e.Extract(context.Background(), "lib.js", []byte(src))
	require.NoError(t, err)
	require.Len(t, units, 4)

	var functions, classes int
	for _, u := range units {
		switch u.Kind {
		case extractor.KindFunction:
			functions++
		case extractor.KindClass:
			classes++
		}
	}
	assert.Equal(t, 2, functions)
	assert.Equal(t, 2, classes)

	// Methods belong to their class unit, never stand alone.
	for _, u := range units {
		assert.NotEqual(t, "push", u.ID)
		assert.NotEqual(t, "pop", u.ID)
	}
}

func TestExtractNameFromVariableBinding(t *testing.T) {
	src := `
const add = (a, b) => a + b;
const mul = function (a, b) { return a * b; };
`
	e := newTestExtractor()
	units, err := e.Extract(context.Background(), "ops.js", []byte(src))
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Equal(t, "add", units[0].ID)
	assert.Equal(t, "mul", units[1].ID)
	for _, u := range units {
		assert.Equal(t, extractor.KindFunction, u.Kind)
	}
}

func TestExtractExplicitNameBeatsBinding(t *testing.T) {
	e := newTestExtractor()

	units, err := e.Extract(context.Background(), "alias.js", []byte("const alias = function original() { return 1; };"))
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "original", units[0].ID)
}

func TestExtractNameFromPropertyKey(t *testing.T) {
	src := `
const api = {
  greet: function (name) { return "hi " + name; },
  shout: (name) => name.toUpperCase(),
  "wave": function () { return "o/"; },
};
`
	e := newTestExtractor()
	units, err := e.Extract(context.Background(), "api.js", []byte(src))
	require.NoError(t, err)
	require.Len(t, units, 3)

	assert.Equal(t, "greet", units[0].ID)
	assert.Equal(t, "shout", units[1].ID)
	assert.Equal(t, "wave", units[2].ID)
}

func TestExtractDiscardsAnonymous(t *testing.T) {
	src := `
[1, 2, 3].map(function (x) { return x * 2; });
setTimeout(() => {}, 10);
const Anon = class {};
`
	e := newTestExtractor()
	units, err := e.Extract(context.Background(), "anon.js", []byte(src))
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestExtractNestedFunctions(t *testing.T) {
	src := `
function outer() {
  function inner() { return 1; }
  return inner;
}
`
	e := newTestExtractor()
	units, err := e.Extract(context.Background(), "nested.js", []byte(src))
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "outer", units[0].ID)
	assert.Equal(t, "inner", units[1].ID)
}

func TestExtractDeepNesting(t *testing.T) {
	const depth = 60
	var b strings.Builder
	for i := 0; i < depth; i++ {
		fmt.Fprintf(&b, "function f%d() {\n", i)
	}
	b.WriteString("return 0;\n")
	for i := 0; i < depth; i++ {
		b.WriteString("}\n")
	}

	e := newTestExtractor()
	units, err := e.Extract(context.Background(), "deep.js", []byte(b.String()))
	require.NoError(t, err)
	require.Len(t, units, depth)
	assert.Equal(t, "f0", units[0].ID)
	assert.Equal(t, fmt.Sprintf("f%d", depth-1), units[depth-1].ID)
}

func TestExtractTypeScript(t *testing.T) {
	src := `
interface Greeter { greet(): string; }
function hello(name: string): string { return "hi " + name; }
class Logger { log(msg: string) {} }
`
	e := newTestExtractor()
	units, err := e.Extract(context.Background(), "app.ts", []byte(src))
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "hello", units[0].ID)
	assert.Equal(t, "Logger", units[1].ID)
}

func TestExtractUnknownExtension(t *testing.T) {
	e := newTestExtractor()

	units, err := e.Extract(context.Background(), "notes.txt", []byte("function add() {}"))
	require.NoError(t, err)
	assert.Nil(t, units)
}

func TestExtractSyntaxError(t *testing.T) {
	e := newTestExtractor()

	_, err := e.Extract(context.Background(), "broken.js", []byte("function ( { ]"))
	require.Error(t, err)
	assert.ErrorIs(t, err, extractor.ErrSyntax)
}
