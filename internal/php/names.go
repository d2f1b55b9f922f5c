package php

import (
	"regexp"
	"strings"
)

// useGroupPattern matches a grouped import: use A\B\{C, D as E};
var useGroupPattern = regexp.MustCompile(`(?s)^use\s+([\w\\]+)\\\{(.*)\}\s*;?$`)

// useKindPattern strips "use function" and "use const" imports, which never
// name classes.
var useKindPattern = regexp.MustCompile(`^use\s+(function|const)\s`)

// resolver turns class names written in source into fully qualified names.
type resolver struct {
	namespace string
	uses      map[string]string
	self      string
	parent    string
}

func newResolver() *resolver {
	return &resolver{uses: make(map[string]string)}
}

// resolve applies PHP's name resolution rules: a leading backslash means
// fully qualified, an imported alias replaces the first segment, anything
// else is relative to the current namespace.
func (r *resolver) resolve(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, `\`) {
		return strings.TrimPrefix(name, `\`)
	}

	switch strings.ToLower(name) {
	case "self", "static":
		if r.self != "" {
			return r.self
		}
	case "parent":
		if r.parent != "" {
			return r.parent
		}
	}

	first, rest, hasRest := strings.Cut(name, `\`)
	if fq, ok := r.uses[strings.ToLower(first)]; ok {
		if hasRest {
			return fq + `\` + rest
		}
		return fq
	}

	if r.namespace == "" {
		return name
	}
	return r.namespace + `\` + name
}

// addUseDeclaration records the imports of one namespace_use_declaration.
func (r *resolver) addUseDeclaration(text string) {
	text = strings.TrimSpace(text)
	if useKindPattern.MatchString(text) {
		return
	}

	if m := useGroupPattern.FindStringSubmatch(text); m != nil {
		prefix := strings.TrimPrefix(m[1], `\`)
		for _, item := range strings.Split(m[2], ",") {
			r.addImport(prefix + `\` + strings.TrimSpace(item))
		}
		return
	}

	body := strings.TrimPrefix(text, "use")
	body = strings.TrimSuffix(strings.TrimSpace(body), ";")
	for _, item := range strings.Split(body, ",") {
		r.addImport(strings.TrimSpace(item))
	}
}

// addImport records "A\B" or "A\B as C".
func (r *resolver) addImport(item string) {
	if item == "" {
		return
	}
	fields := strings.Fields(item)
	fq := strings.TrimPrefix(fields[0], `\`)
	alias := fq
	if i := strings.LastIndex(fq, `\`); i >= 0 {
		alias = fq[i+1:]
	}
	if len(fields) == 3 && strings.EqualFold(fields[1], "as") {
		alias = fields[2]
	}
	r.uses[strings.ToLower(alias)] = fq
}

// Imports returns a copy of the alias to class map.
func (r *resolver) imports() map[string]string {
	out := make(map[string]string, len(r.uses))
	for k, v := range r.uses {
		out[k] = v
	}
	return out
}
