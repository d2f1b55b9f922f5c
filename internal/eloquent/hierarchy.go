package eloquent

import (
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/nao1215/aimap/internal/model"
	"github.com/nao1215/aimap/internal/php"
)

// maxDepth bounds parent lookups so a cyclic extends chain terminates.
const maxDepth = 32

// hierarchy resolves inherited model metadata among the scanned classes.
// Classes outside the scanned directory are only known by name.
type hierarchy struct {
	classes map[string]*php.Class
}

func (h hierarchy) parent(c *php.Class) *php.Class {
	if c.Extends == "" {
		return nil
	}
	return h.classes[strings.ToLower(c.Extends)]
}

// isModel reports whether c extends an Eloquent base class, directly or
// through other scanned classes.
func (h hierarchy) isModel(c *php.Class) bool {
	return h.base(c) != ""
}

// base returns the Eloquent base class at the root of c's ancestry, or "".
func (h hierarchy) base(c *php.Class) string {
	for depth := 0; c != nil && depth < maxDepth; depth++ {
		switch strings.ToLower(strings.TrimPrefix(c.Extends, `\`)) {
		case strings.ToLower(BaseModel), strings.ToLower(BaseUser):
			return BaseModel
		case strings.ToLower(BasePivot), strings.ToLower(BaseMorphPivot):
			return BasePivot
		}
		c = h.parent(c)
	}
	return ""
}

// property finds the nearest non-static declaration of name in c's ancestry.
func (h hierarchy) property(c *php.Class, name string) (*php.Property, bool) {
	for depth := 0; c != nil && depth < maxDepth; depth++ {
		if p, ok := c.Property(name); ok && !p.Static && p.HasDefault {
			return p, true
		}
		c = h.parent(c)
	}
	return nil, false
}

// method finds the nearest declaration of name in c's ancestry.
func (h hierarchy) method(c *php.Class, name string) (*php.Method, bool) {
	for depth := 0; c != nil && depth < maxDepth; depth++ {
		if m, ok := c.Method(name); ok {
			return m, true
		}
		c = h.parent(c)
	}
	return nil, false
}

// table returns $table or the name Eloquent derives from the class:
// snake case with the last word pluralized, singular for pivot models.
func (h hierarchy) table(c *php.Class) string {
	if p, ok := h.property(c, "table"); ok {
		if s, ok := php.StringValue(p.Default); ok && s != "" {
			return s
		}
	}
	if h.base(c) == BasePivot {
		return TableName(c.ShortName(), true)
	}
	return TableName(c.ShortName(), false)
}

// TableName derives a table name from a class basename.
func TableName(class string, pivot bool) string {
	snake := inflect.Underscore(class)
	head, last := "", snake
	if i := strings.LastIndex(snake, "_"); i >= 0 {
		head, last = snake[:i+1], snake[i+1:]
	}
	if pivot {
		return head + inflect.Singularize(last)
	}
	return head + inflect.Pluralize(last)
}

// stringList returns a string array property, def when it is not declared.
// $guarded = false means nothing is guarded.
func (h hierarchy) stringList(c *php.Class, name string, def []string) []string {
	p, ok := h.property(c, name)
	if !ok {
		return def
	}
	switch v := p.Default.(type) {
	case *php.Array:
		return v.Strings()
	case bool:
		if !v {
			return []string{}
		}
	}
	return def
}

// casts merges the primary key cast, $casts and the casts() method the way
// Model::getCasts does: the key cast comes first when the key increments.
func (h hierarchy) casts(c *php.Class) *model.OrderedMap {
	casts := model.NewOrderedMap()

	if h.incrementing(c) {
		key, keyType := "id", "int"
		if p, ok := h.property(c, "primaryKey"); ok {
			if s, ok := php.StringValue(p.Default); ok && s != "" {
				key = s
			}
		}
		if p, ok := h.property(c, "keyType"); ok {
			if s, ok := php.StringValue(p.Default); ok && s != "" {
				keyType = s
			}
		}
		casts.Set(key, keyType)
	}

	if p, ok := h.property(c, "casts"); ok {
		mergeCasts(casts, p.Default)
	}
	if m, ok := h.method(c, "casts"); ok && !m.Static {
		for _, r := range m.Returns {
			mergeCasts(casts, r)
		}
	}
	return casts
}

func (h hierarchy) incrementing(c *php.Class) bool {
	p, ok := h.property(c, "incrementing")
	if !ok {
		return true
	}
	b, isBool := p.Default.(bool)
	return !isBool || b
}

func mergeCasts(dst *model.OrderedMap, v any) {
	arr, ok := v.(*php.Array)
	if !ok || arr.IsList() {
		return
	}
	src := arr.Map()
	src.Each(func(key string, value any) bool {
		dst.Set(key, value)
		return true
	})
}
