package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/aimap/internal/model"
)

// MarkdownWriter outputs a human-readable digest of the project map.
// Every value comes from the same map the JSON writer emits; nothing is
// computed that the JSON would not contain.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the digest in Markdown format.
func (w *MarkdownWriter) Write(m *model.ProjectMap) (int, error) {
	entries, err := normalize(m)
	if err != nil {
		return 0, err
	}

	md := markdown.NewMarkdown(w.output)
	w.writeHeader(md, entries)

	entries.Each(func(key string, value any) bool {
		if key == model.KeyProjectName || key == model.KeyLaravelVersion {
			return true
		}
		md.H2(key)
		md.PlainText("")
		w.writeSection(md, key, value)
		return true
	})

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the identity table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, entries *model.OrderedMap) {
	name, _ := entries.Get(model.KeyProjectName)
	version, _ := entries.Get(model.KeyLaravelVersion)

	md.H1(fmt.Sprintf("%s project map", text(name)))
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Project", cell(text(name))},
			{"Laravel version", cell(text(version))},
			{"Sections", strconv.Itoa(entries.Len() - 2)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSection(md *markdown.Markdown, key string, value any) {
	if value == nil {
		if key == "filament" {
			md.Note("Filament is not installed or its panels could not be analyzed.")
		} else {
			md.Warningf("The %s section could not be produced.", key)
		}
		md.PlainText("")
		return
	}

	switch key {
	case "environment":
		w.writeKeyValues(md, value)
	case "databaseSchema":
		w.writeSchema(md, value)
	case "directoryStructure":
		w.writeTree(md, value)
	case "models":
		w.writeModels(md, value)
	case "routes":
		w.writeRoutes(md, value)
	case "composerDependencies":
		w.writeDependencies(md, value)
	case "filament":
		w.writePanels(md, value)
	case "scheduledCommands":
		w.writeList(md, value, "No scheduled commands found.")
	case "eventListeners":
		w.writeListeners(md, value)
	default:
		w.writeRaw(md, value)
	}
}

func (w *MarkdownWriter) writeKeyValues(md *markdown.Markdown, value any) {
	om, ok := value.(*model.OrderedMap)
	if !ok || om.Len() == 0 {
		w.writeRaw(md, value)
		return
	}
	rows := make([][]string, 0, om.Len())
	om.Each(func(k string, v any) bool {
		rows = append(rows, []string{cell(k), cell(text(v))})
		return true
	})
	md.Table(markdown.TableSet{Header: []string{"Key", "Value"}, Rows: rows})
	md.PlainText("")
}

// writeSchema handles both shapes: a column summary list per table in
// compact mode and columns, indexes and foreign keys otherwise.
func (w *MarkdownWriter) writeSchema(md *markdown.Markdown, value any) {
	tables, ok := value.(*model.OrderedMap)
	if !ok || tables.Len() == 0 {
		md.PlainText("No database schema available.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, tables.Len())
	tables.Each(func(name string, v any) bool {
		switch t := v.(type) {
		case []any:
			rows = append(rows, []string{code(name), cell(strings.Join(texts(t), ", ")), "-", "-"})
		case *model.OrderedMap:
			columns, _ := t.Get("columns")
			indexes, _ := t.Get("indexes")
			keys, _ := t.Get("foreign_keys")
			names := make([]string, 0)
			for _, c := range list(columns) {
				if col, ok := c.(*model.OrderedMap); ok {
					n, _ := col.Get("name")
					names = append(names, text(n))
				}
			}
			rows = append(rows, []string{
				code(name),
				cell(strings.Join(names, ", ")),
				strconv.Itoa(len(list(indexes))),
				strconv.Itoa(len(list(keys))),
			})
		}
		return true
	})
	md.Table(markdown.TableSet{Header: []string{"Table", "Columns", "Indexes", "Foreign keys"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeTree(md *markdown.Markdown, value any) {
	roots, ok := value.(*model.OrderedMap)
	if !ok || roots.Len() == 0 {
		md.PlainText("No directories found.")
		md.PlainText("")
		return
	}
	var b strings.Builder
	roots.Each(func(root string, v any) bool {
		b.WriteString(root + "/\n")
		if node, ok := v.(*model.OrderedMap); ok {
			writeNode(&b, node, 1)
		}
		return true
	})
	md.CodeBlocks(markdown.SyntaxHighlightText, strings.TrimSuffix(b.String(), "\n"))
	md.PlainText("")
}

// writeNode indents children two spaces per level. Entries with children
// are shown as directories.
func writeNode(b *strings.Builder, node *model.OrderedMap, depth int) {
	node.Each(func(name string, v any) bool {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(name)
		child, ok := v.(*model.OrderedMap)
		if ok && child.Len() > 0 {
			b.WriteString("/\n")
			writeNode(b, child, depth+1)
			return true
		}
		b.WriteString("\n")
		return true
	})
}

func (w *MarkdownWriter) writeModels(md *markdown.Markdown, value any) {
	models := list(value)
	if len(models) == 0 {
		md.PlainText("No models found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(models))
	for _, v := range models {
		m, ok := v.(*model.OrderedMap)
		if !ok {
			continue
		}
		class, _ := m.Get("class")
		table, _ := m.Get("table")
		var relations []string
		if rel, ok := m.Get("relationships"); ok {
			if rm, ok := rel.(*model.OrderedMap); ok {
				rm.Each(func(method string, r any) bool {
					relations = append(relations, relationText(method, r))
					return true
				})
			}
		}
		rows = append(rows, []string{code(text(class)), code(text(table)), cell(strings.Join(relations, ", "))})
	}
	md.Table(markdown.TableSet{Header: []string{"Model", "Table", "Relationships"}, Rows: rows})
	md.PlainText("")
}

func relationText(method string, r any) string {
	rm, ok := r.(*model.OrderedMap)
	if !ok {
		return method
	}
	typ, _ := rm.Get("type")
	related, _ := rm.Get("related_model")
	return fmt.Sprintf("%s (%s %s)", method, text(typ), model.ShortClassName(text(related)))
}

// writeRoutes writes a route table, or the one-line form in compact mode,
// followed by a chart of the methods in use.
func (w *MarkdownWriter) writeRoutes(md *markdown.Markdown, value any) {
	routes := list(value)
	if len(routes) == 0 {
		md.PlainText("No routes found.")
		md.PlainText("")
		return
	}

	methods := make(map[string]uint64)
	var order []string
	count := func(method string) {
		if _, ok := methods[method]; !ok {
			order = append(order, method)
		}
		methods[method]++
	}

	rows := make([][]string, 0, len(routes))
	var lines []string
	for _, v := range routes {
		switch r := v.(type) {
		case string:
			lines = append(lines, code(r))
			if i := strings.Index(r, "]"); strings.HasPrefix(r, "[") && i > 0 {
				count(r[1:i])
			}
		case *model.OrderedMap:
			method, _ := r.Get("method")
			uri, _ := r.Get("uri")
			action, _ := r.Get("action")
			name, _ := r.Get("name")
			rows = append(rows, []string{cell(text(method)), code(text(uri)), code(text(action)), cell(text(name))})
			count(text(method))
		}
	}
	if len(rows) > 0 {
		md.Table(markdown.TableSet{Header: []string{"Method", "URI", "Action", "Name"}, Rows: rows})
	}
	if len(lines) > 0 {
		md.BulletList(lines...)
	}
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Routes by method"),
		piechart.WithShowData(true),
	)
	for _, method := range order {
		chart.LabelAndIntValue(method, methods[method])
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeDependencies(md *markdown.Markdown, value any) {
	deps, ok := value.(*model.OrderedMap)
	if !ok || deps.Len() == 0 {
		md.PlainText("No composer.json found.")
		md.PlainText("")
		return
	}

	installed, _ := deps.Get("installed_versions")
	versions, _ := installed.(*model.OrderedMap)

	var rows [][]string
	for _, group := range []string{"require", "require-dev"} {
		v, _ := deps.Get(group)
		packages, ok := v.(*model.OrderedMap)
		if !ok {
			continue
		}
		packages.Each(func(name string, constraint any) bool {
			version := "-"
			if versions != nil {
				if iv, ok := versions.Get(name); ok {
					version = text(iv)
				}
			}
			rows = append(rows, []string{code(name), cell(text(constraint)), cell(version), strconv.FormatBool(group == "require-dev")})
			return true
		})
	}
	if len(rows) == 0 {
		md.PlainText("No dependencies declared.")
		md.PlainText("")
		return
	}
	md.Table(markdown.TableSet{Header: []string{"Package", "Constraint", "Installed", "Dev"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writePanels(md *markdown.Markdown, value any) {
	om, ok := value.(*model.OrderedMap)
	if !ok {
		w.writeRaw(md, value)
		return
	}
	panels, _ := om.Get("panels")
	if len(list(panels)) == 0 {
		md.PlainText("No panels registered.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0)
	for _, v := range list(panels) {
		p, ok := v.(*model.OrderedMap)
		if !ok {
			continue
		}
		id, _ := p.Get("id")
		path, _ := p.Get("path")
		resources, _ := p.Get("resources")
		pages, _ := p.Get("pages")
		widgets, _ := p.Get("widgets")
		rows = append(rows, []string{
			code(text(id)),
			code("/" + strings.TrimPrefix(text(path), "/")),
			cell(strings.Join(model.ShortClassNames(texts(list(resources))), ", ")),
			cell(strings.Join(model.ShortClassNames(texts(list(pages))), ", ")),
			cell(strings.Join(model.ShortClassNames(texts(list(widgets))), ", ")),
		})
	}
	md.Table(markdown.TableSet{Header: []string{"Panel", "Path", "Resources", "Pages", "Widgets"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeList(md *markdown.Markdown, value any, empty string) {
	items := texts(list(value))
	if len(items) == 0 {
		md.PlainText(empty)
		md.PlainText("")
		return
	}
	for i, s := range items {
		items[i] = code(s)
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeListeners(md *markdown.Markdown, value any) {
	om, ok := value.(*model.OrderedMap)
	if !ok || om.Len() == 0 {
		md.PlainText("No event listeners found.")
		md.PlainText("")
		return
	}
	rows := make([][]string, 0, om.Len())
	om.Each(func(event string, listeners any) bool {
		names := texts(list(listeners))
		for i, n := range names {
			names[i] = code(n)
		}
		rows = append(rows, []string{code(event), cell(strings.Join(names, ", "))})
		return true
	})
	md.Table(markdown.TableSet{Header: []string{"Event", "Listeners"}, Rows: rows})
	md.PlainText("")
}

// writeRaw falls back to the JSON form of a value.
func (w *MarkdownWriter) writeRaw(md *markdown.Markdown, value any) {
	data, err := marshalUnescaped(value, DefaultIndent)
	if err != nil {
		md.PlainText(fmt.Sprint(value))
		md.PlainText("")
		return
	}
	md.CodeBlocks(markdown.SyntaxHighlightJSON, string(data))
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [aimap](https://github.com/nao1215/aimap)*")
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

// text renders a scalar the way it appears in JSON, without quotes.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		data, err := marshalUnescaped(t, "")
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

// marshalUnescaped is json.MarshalIndent without HTML escaping, so route
// arrows and shell redirections read as written.
func marshalUnescaped(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func texts(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, text(v))
	}
	return out
}

// cell escapes the characters that would end a table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func code(s string) string {
	if s == "" || s == "-" {
		return "-"
	}
	return "`" + cell(s) + "`"
}
