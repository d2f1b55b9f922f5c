package model

import "strings"

// Panel is one registered admin panel and the classes mounted on it.
type Panel struct {
	ID        string   `json:"id"`
	Path      string   `json:"path"`
	Resources []string `json:"resources"`
	Pages     []string `json:"pages"`
	Widgets   []string `json:"widgets"`
}

// Compact returns a copy of the panel with class names trimmed to their
// short form (the part after the last backslash).
func (p Panel) Compact() Panel {
	return Panel{
		ID:        p.ID,
		Path:      p.Path,
		Resources: ShortClassNames(p.Resources),
		Pages:     ShortClassNames(p.Pages),
		Widgets:   ShortClassNames(p.Widgets),
	}
}

// ShortClassName returns the part of a class name after the last backslash.
func ShortClassName(class string) string {
	if i := strings.LastIndex(class, `\`); i >= 0 {
		return class[i+1:]
	}
	return class
}

// ShortClassNames applies ShortClassName to every element.
func ShortClassNames(classes []string) []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = ShortClassName(c)
	}
	return out
}
