package php

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// ErrSyntax is returned by File.Err when the source contains syntax the
// grammar could not parse. Extraction still runs on the recoverable parts.
var ErrSyntax = errors.New("php syntax error")

var modifierPattern = regexp.MustCompile(`\b(abstract|final|public|protected|private|static|readonly)\b`)

// File is the static outline of one PHP source file.
type File struct {
	Path      string
	Namespace string
	// Imports maps lower-cased aliases to fully qualified class names.
	Imports map[string]string
	Classes []*Class
	// Return is the evaluated top-level return expression, as found in
	// configuration files. Nil when the file has none.
	Return any
	// HasReturn distinguishes "return null;" from no return at all.
	HasReturn bool
	// Syntax is true when the parser recovered from errors.
	Syntax bool
}

// Err returns ErrSyntax when the file did not parse cleanly.
func (f *File) Err() error {
	if f.Syntax {
		if f.Path != "" {
			return fmt.Errorf("%w: %s", ErrSyntax, f.Path)
		}
		return ErrSyntax
	}
	return nil
}

// Class returns the first class declared in the file, or nil.
func (f *File) Class() *Class {
	if len(f.Classes) == 0 {
		return nil
	}
	return f.Classes[0]
}

// Class is a class declaration.
type Class struct {
	// Name is the fully qualified class name.
	Name string
	// Extends is the fully qualified parent class, empty when none.
	Extends    string
	Abstract   bool
	Final      bool
	Properties []*Property
	Methods    []*Method
}

// ShortName returns the class name without its namespace.
func (c *Class) ShortName() string {
	if i := strings.LastIndex(c.Name, `\`); i >= 0 {
		return c.Name[i+1:]
	}
	return c.Name
}

// Property looks up a declared property by name (without the $).
func (c *Class) Property(name string) (*Property, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Method looks up a declared method by name, case-insensitively as PHP does.
func (c *Class) Method(name string) (*Method, bool) {
	for _, m := range c.Methods {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return nil, false
}

// Property is one declared class property.
type Property struct {
	Name   string
	Static bool
	// Visibility is public, protected or private.
	Visibility string
	// Default is the evaluated initializer; HasDefault is false when the
	// property was declared without one.
	Default    any
	HasDefault bool
}

// Method is one declared method.
type Method struct {
	Name       string
	Visibility string
	Static     bool
	Abstract   bool
	// Params is the number of declared parameters.
	Params int
	// ReturnType is the declared return type as written, resolved when it
	// is a single class name.
	ReturnType string
	// Returns holds the evaluated expressions of every return statement in
	// the body, in source order.
	Returns []any
	// Calls holds every method call made in the body, in source order.
	Calls []Call
}

// Call is a method call such as $this->hasMany(Post::class) or a link in a
// fluent chain like $panel->id('admin').
type Call struct {
	// Object is the receiver as written, e.g. "$this". For chained calls it
	// is the source text of the inner chain.
	Object string
	Name   string
	Args   []Arg
}

// Parser extracts File outlines from PHP source. A Parser is not safe for
// concurrent use.
type Parser struct {
	parser *sitter.Parser
	eval   Evaluator
}

// Option configures a Parser.
type Option func(*Parser)

// WithEnv sets the env() lookup used while evaluating expressions.
func WithEnv(env EnvLookup) Option {
	return func(p *Parser) {
		p.eval.Env = env
	}
}

// WithBasePath sets the project root used by the path helper functions.
func WithBasePath(base string) Option {
	return func(p *Parser) {
		p.eval.BasePath = base
	}
}

// NewParser creates a Parser for PHP source.
func NewParser(opts ...Option) *Parser {
	sp := sitter.NewParser()
	sp.SetLanguage(php.GetLanguage())
	p := &Parser{parser: sp}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*File, error) {
	src, err := os.ReadFile(path) //nolint:gosec // path comes from a project walk
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	f, err := p.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse parses PHP source and extracts its outline.
func (p *Parser) Parse(ctx context.Context, src []byte) (*File, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	x := &extractor{
		ctx:  &evalContext{ev: &p.eval, src: src, names: newResolver()},
		file: &File{Syntax: root.HasError()},
	}
	x.walkStatements(root)
	x.file.Namespace = x.ctx.names.namespace
	x.file.Imports = x.ctx.names.imports()
	return x.file, nil
}

type extractor struct {
	ctx  *evalContext
	file *File
}

// walkStatements visits the top-level statements of a program or a braced
// namespace body.
func (x *extractor) walkStatements(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "namespace_definition":
			if name := child.ChildByFieldName("name"); name != nil {
				x.ctx.names.namespace = strings.TrimPrefix(x.ctx.text(name), `\`)
			} else {
				x.ctx.names.namespace = ""
			}
			if body := child.ChildByFieldName("body"); body != nil {
				x.walkStatements(body)
			}
		case "namespace_use_declaration":
			x.ctx.names.addUseDeclaration(x.ctx.text(child))
		case "class_declaration":
			x.file.Classes = append(x.file.Classes, x.class(child))
		case "return_statement":
			if !x.file.HasReturn {
				x.file.HasReturn = true
				if child.NamedChildCount() > 0 {
					x.file.Return = x.ctx.eval(child.NamedChild(0))
				}
			}
		case "compound_statement":
			x.walkStatements(child)
		}
	}
}

func (x *extractor) class(n *sitter.Node) *Class {
	c := &Class{}
	nameNode := n.ChildByFieldName("name")
	if nameNode != nil {
		c.Name = x.ctx.names.resolve(x.ctx.text(nameNode))
		head := string(x.ctx.src[n.StartByte():nameNode.StartByte()])
		for _, m := range modifierPattern.FindAllString(head, -1) {
			switch m {
			case "abstract":
				c.Abstract = true
			case "final":
				c.Final = true
			}
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "base_clause" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			parent := child.NamedChild(j)
			if parent.Type() == "name" || parent.Type() == "qualified_name" {
				c.Extends = x.ctx.names.resolve(x.ctx.text(parent))
				break
			}
		}
	}

	x.ctx.names.self = c.Name
	x.ctx.names.parent = c.Extends
	defer func() {
		x.ctx.names.self = ""
		x.ctx.names.parent = ""
	}()

	body := n.ChildByFieldName("body")
	if body == nil {
		return c
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "property_declaration":
			c.Properties = append(c.Properties, x.properties(member)...)
		case "method_declaration":
			c.Methods = append(c.Methods, x.method(member))
		}
	}
	return c
}

func (x *extractor) properties(n *sitter.Node) []*Property {
	var (
		elements []*sitter.Node
		headEnd  = n.EndByte()
	)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "property_element" {
			if len(elements) == 0 {
				headEnd = child.StartByte()
			}
			elements = append(elements, child)
		}
	}
	visibility, static, _ := modifiers(string(x.ctx.src[n.StartByte():headEnd]))

	out := make([]*Property, 0, len(elements))
	for _, el := range elements {
		p := &Property{Visibility: visibility, Static: static}
		for j := 0; j < int(el.NamedChildCount()); j++ {
			part := el.NamedChild(j)
			switch part.Type() {
			case "variable_name":
				p.Name = strings.TrimPrefix(x.ctx.text(part), "$")
			case "property_initializer":
				if part.NamedChildCount() > 0 {
					p.HasDefault = true
					p.Default = x.ctx.eval(part.NamedChild(0))
				}
			default:
				// Older grammars put the initializer expression directly
				// under the element.
				if p.Name != "" && !p.HasDefault {
					p.HasDefault = true
					p.Default = x.ctx.eval(part)
				}
			}
		}
		out = append(out, p)
	}
	return out
}

func (x *extractor) method(n *sitter.Node) *Method {
	m := &Method{}
	nameNode := n.ChildByFieldName("name")
	if nameNode != nil {
		m.Name = x.ctx.text(nameNode)
		visibility, static, abstract := modifiers(string(x.ctx.src[n.StartByte():nameNode.StartByte()]))
		m.Visibility = visibility
		m.Static = static
		m.Abstract = abstract
	}

	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			if strings.HasSuffix(params.NamedChild(i).Type(), "parameter") {
				m.Params++
			}
		}
	}

	if rt := n.ChildByFieldName("return_type"); rt != nil {
		m.ReturnType = x.returnType(strings.TrimSpace(strings.TrimPrefix(x.ctx.text(rt), ":")))
	}

	if body := n.ChildByFieldName("body"); body != nil {
		x.collectBody(body, m)
	}
	return m
}

// returnType resolves single class types; union, intersection and builtin
// types are kept as written.
func (x *extractor) returnType(t string) string {
	nullable := strings.HasPrefix(t, "?")
	bare := strings.TrimPrefix(t, "?")
	if strings.ContainsAny(bare, "|&() ") || isBuiltinType(bare) {
		return t
	}
	resolved := x.ctx.names.resolve(bare)
	if nullable {
		return "?" + resolved
	}
	return resolved
}

// collectBody records return values and method calls in source order.
// Closures and nested class bodies are not descended into.
func (x *extractor) collectBody(n *sitter.Node, m *Method) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "anonymous_function_creation_expression", "anonymous_function", "arrow_function", "class_declaration":
			continue
		}

		// Children first so a fluent chain yields its calls in the order
		// they are written.
		x.collectBody(child, m)

		switch child.Type() {
		case "member_call_expression", "nullsafe_member_call_expression":
			call := Call{}
			if obj := child.ChildByFieldName("object"); obj != nil {
				call.Object = strings.TrimSpace(x.ctx.text(obj))
			}
			if name := child.ChildByFieldName("name"); name != nil {
				call.Name = x.ctx.text(name)
			}
			call.Args = x.ctx.args(child.ChildByFieldName("arguments"))
			m.Calls = append(m.Calls, call)
		case "return_statement":
			var v any
			if child.NamedChildCount() > 0 {
				v = x.ctx.eval(child.NamedChild(0))
			}
			m.Returns = append(m.Returns, v)
		}
	}
}

// modifiers parses the keywords in front of a member declaration.
func modifiers(head string) (visibility string, static, abstract bool) {
	visibility = "public"
	for _, m := range modifierPattern.FindAllString(head, -1) {
		switch m {
		case "public", "protected", "private":
			visibility = m
		case "static":
			static = true
		case "abstract":
			abstract = true
		}
	}
	return visibility, static, abstract
}

func isBuiltinType(t string) bool {
	switch strings.ToLower(t) {
	case "array", "bool", "callable", "float", "int", "iterable", "mixed",
		"never", "null", "object", "string", "void", "false", "true", "self", "static":
		return true
	default:
		return false
	}
}
