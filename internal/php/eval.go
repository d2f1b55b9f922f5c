package php

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// EnvLookup resolves an env() call. ok is false when the variable is unset,
// in which case the call's default argument is used.
type EnvLookup func(name string) (value any, ok bool)

// Evaluator folds constant PHP expressions into Go values.
//
// Only the subset of PHP that appears in Laravel configuration files and
// class property defaults is understood: scalars, arrays, Foo::class,
// string concatenation, casts, env() and the *_path() helpers. Anything
// else evaluates to nil, which mirrors how an unresolvable config value
// behaves when it is absent.
type Evaluator struct {
	// Env resolves env() calls. A nil Env treats every variable as unset.
	Env EnvLookup
	// BasePath is the project root used by base_path(), app_path() and the
	// other path helpers. Empty leaves those calls unresolved.
	BasePath string
}

var pathHelpers = map[string]string{
	"base_path":     "",
	"app_path":      "app",
	"config_path":   "config",
	"database_path": "database",
	"resource_path": "resources",
	"storage_path":  "storage",
	"public_path":   "public",
	"lang_path":     "lang",
}

var namedArgPattern = regexp.MustCompile(`^([A-Za-z_]\w*)\s*:([^:]|$)`)

// Arg is one evaluated argument of a call expression.
type Arg struct {
	// Name is set for PHP 8 named arguments (in: ..., for: ...).
	Name  string
	Value any
	Text  string
}

// evalContext carries what the evaluator needs about the surrounding file.
type evalContext struct {
	ev    *Evaluator
	src   []byte
	names *resolver
}

func (c *evalContext) text(n *sitter.Node) string {
	return n.Content(c.src)
}

// eval folds node into a value.
func (c *evalContext) eval(n *sitter.Node) any {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "string", "encapsed_string":
		return unquote(c.text(n))
	case "integer":
		return parseInt(c.text(n))
	case "float":
		f, err := strconv.ParseFloat(strings.ReplaceAll(c.text(n), "_", ""), 64)
		if err != nil {
			return nil
		}
		return f
	case "boolean":
		return strings.EqualFold(c.text(n), "true")
	case "null":
		return nil
	case "name", "qualified_name":
		return constant(c.text(n))
	case "array_creation_expression":
		return c.evalArray(n)
	case "class_constant_access_expression":
		text := c.text(n)
		if cls, ok := strings.CutSuffix(text, "::class"); ok {
			return ClassName(c.names.resolve(cls))
		}
		return nil
	case "function_call_expression":
		return c.evalCall(n)
	case "binary_expression":
		return c.evalBinary(n)
	case "parenthesized_expression":
		if n.NamedChildCount() > 0 {
			return c.eval(n.NamedChild(0))
		}
		return nil
	case "unary_op_expression":
		return c.evalUnary(n)
	case "cast_expression":
		return c.evalCast(n)
	default:
		return nil
	}
}

func (c *evalContext) evalArray(n *sitter.Node) *Array {
	arr := &Array{}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		el := n.NamedChild(i)
		if el.Type() != "array_element_initializer" {
			continue
		}
		// Spread elements (...$other) cannot be folded.
		if strings.HasPrefix(strings.TrimSpace(c.text(el)), "...") {
			continue
		}
		switch el.NamedChildCount() {
		case 0:
			continue
		case 1:
			arr.Entries = append(arr.Entries, Entry{Value: c.eval(el.NamedChild(0))})
		default:
			key := c.eval(el.NamedChild(0))
			value := c.eval(el.NamedChild(int(el.NamedChildCount()) - 1))
			arr.Entries = append(arr.Entries, Entry{Key: normalizeKey(key), Value: value})
		}
	}
	return arr
}

func (c *evalContext) evalCall(n *sitter.Node) any {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return nil
	}
	name := strings.ToLower(strings.TrimPrefix(c.text(fn), `\`))
	args := c.args(n.ChildByFieldName("arguments"))

	switch name {
	case "env":
		if len(args) == 0 {
			return nil
		}
		key, ok := StringValue(args[0].Value)
		if !ok {
			return nil
		}
		if c.ev != nil && c.ev.Env != nil {
			if v, found := c.ev.Env(key); found {
				return v
			}
		}
		if len(args) > 1 {
			return args[1].Value
		}
		return nil
	}

	if dir, ok := pathHelpers[name]; ok {
		if c.ev == nil || c.ev.BasePath == "" {
			return nil
		}
		p := filepath.Join(c.ev.BasePath, dir)
		if len(args) > 0 {
			if rel, ok := StringValue(args[0].Value); ok && rel != "" {
				p = filepath.Join(p, rel)
			}
		}
		return p
	}
	return nil
}

func (c *evalContext) evalBinary(n *sitter.Node) any {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil {
		return nil
	}
	op := strings.TrimSpace(string(c.src[left.EndByte():right.StartByte()]))
	l, r := c.eval(left), c.eval(right)

	switch op {
	case ".":
		return toString(l) + toString(r)
	case "??", "?:":
		if l != nil && l != false && l != "" {
			return l
		}
		return r
	case "||", "or":
		return truthy(l) || truthy(r)
	case "&&", "and":
		return truthy(l) && truthy(r)
	default:
		return nil
	}
}

func (c *evalContext) evalUnary(n *sitter.Node) any {
	text := strings.TrimSpace(c.text(n))
	if n.NamedChildCount() == 0 {
		return nil
	}
	v := c.eval(n.NamedChild(0))
	switch {
	case strings.HasPrefix(text, "-"):
		switch t := v.(type) {
		case int64:
			return -t
		case float64:
			return -t
		}
	case strings.HasPrefix(text, "!"):
		return !truthy(v)
	}
	return nil
}

func (c *evalContext) evalCast(n *sitter.Node) any {
	value := n.ChildByFieldName("value")
	if value == nil && n.NamedChildCount() > 0 {
		value = n.NamedChild(int(n.NamedChildCount()) - 1)
	}
	v := c.eval(value)

	text := strings.ToLower(strings.ReplaceAll(c.text(n), " ", ""))
	switch {
	case strings.HasPrefix(text, "(int)"), strings.HasPrefix(text, "(integer)"):
		switch t := v.(type) {
		case int64:
			return t
		case float64:
			return int64(t)
		case bool:
			if t {
				return int64(1)
			}
			return int64(0)
		case string:
			if i, ok := parseInt(strings.TrimSpace(t)).(int64); ok {
				return i
			}
			return int64(0)
		}
		return int64(0)
	case strings.HasPrefix(text, "(bool)"), strings.HasPrefix(text, "(boolean)"):
		return truthy(v)
	case strings.HasPrefix(text, "(string)"):
		return toString(v)
	case strings.HasPrefix(text, "(float)"), strings.HasPrefix(text, "(double)"):
		switch t := v.(type) {
		case int64:
			return float64(t)
		case float64:
			return t
		case string:
			f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
			return f
		}
		return float64(0)
	}
	return v
}

// args evaluates an arguments node.
func (c *evalContext) args(n *sitter.Node) []Arg {
	if n == nil {
		return nil
	}
	var out []Arg
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		arg := Arg{Text: strings.TrimSpace(c.text(child))}
		expr := child
		if child.Type() == "argument" {
			if m := namedArgPattern.FindStringSubmatch(arg.Text); m != nil {
				arg.Name = m[1]
			}
			if child.NamedChildCount() > 0 {
				expr = child.NamedChild(int(child.NamedChildCount()) - 1)
			}
		}
		arg.Value = c.eval(expr)
		out = append(out, arg)
	}
	return out
}

// unquote decodes a single- or double-quoted PHP string literal.
// Interpolated variables are left as written.
func unquote(lit string) string {
	if len(lit) < 2 {
		return lit
	}
	quote := lit[0]
	if quote != '\'' && quote != '"' {
		return lit
	}
	body := lit[1 : len(lit)-1]

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' || i+1 >= len(body) {
			b.WriteByte(ch)
			continue
		}
		next := body[i+1]
		if quote == '\'' {
			if next == '\'' || next == '\\' {
				b.WriteByte(next)
				i++
				continue
			}
			b.WriteByte(ch)
			continue
		}
		switch next {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"', '\\', '$':
			b.WriteByte(next)
		default:
			b.WriteByte(ch)
			b.WriteByte(next)
		}
		i++
	}
	return b.String()
}

func parseInt(text string) any {
	text = strings.ReplaceAll(text, "_", "")
	if len(text) > 1 && text[0] == '0' && text[1] >= '0' && text[1] <= '9' {
		text = "0o" + text[1:]
	}
	i, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return nil
	}
	return i
}

func constant(name string) any {
	switch strings.ToLower(strings.TrimPrefix(name, `\`)) {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	case "php_int_max":
		return int64(1<<63 - 1)
	default:
		return nil
	}
}

func normalizeKey(k any) any {
	switch t := k.(type) {
	case string:
		if i, err := strconv.ParseInt(t, 10, 64); err == nil && strconv.FormatInt(i, 10) == t {
			return i
		}
		return t
	case ClassName:
		return string(t)
	case int64:
		return t
	case bool:
		if t {
			return int64(1)
		}
		return int64(0)
	case nil:
		return ""
	default:
		return toString(t)
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case ClassName:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return ""
	default:
		return ""
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != "" && t != "0"
	case ClassName:
		return t != ""
	case *Array:
		return t.Len() > 0
	default:
		return true
	}
}
