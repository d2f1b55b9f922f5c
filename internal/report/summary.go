package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/aimap/internal/model"
)

// sectionUnits names what the entries of each section count.
var sectionUnits = map[string]string{
	"environment":          "settings",
	"databaseSchema":       "tables",
	"directoryStructure":   "roots",
	"models":               "models",
	"routes":               "routes",
	"composerDependencies": "packages",
	"filament":             "panels",
	"scheduledCommands":    "commands",
	"eventListeners":       "events",
}

// SummaryWriter outputs a plain text overview of a project map for the
// terminal: one line per section with the number of entries it holds.
type SummaryWriter struct {
	baseWriter
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer) *SummaryWriter {
	return &SummaryWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the overview.
func (w *SummaryWriter) Write(m *model.ProjectMap) (int, error) {
	entries, err := normalize(m)
	if err != nil {
		return 0, err
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat("-", 50))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Project:  %s\n", m.ProjectName()))
	sb.WriteString(fmt.Sprintf("Laravel:  %s\n", m.LaravelVersion()))
	sb.WriteString(strings.Repeat("-", 50))
	sb.WriteString("\n")

	entries.Each(func(key string, value any) bool {
		if key == model.KeyProjectName || key == model.KeyLaravelVersion {
			return true
		}
		sb.WriteString(fmt.Sprintf("  %-22s %s\n", key, Count(key, value)))
		return true
	})

	return w.output.Write([]byte(sb.String()))
}

// Count describes the size of a section value, such as "12 tables".
// Null sections read "unavailable".
func Count(key string, value any) string {
	unit := sectionUnits[key]
	if unit == "" {
		unit = "entries"
	}

	var n int
	switch v := value.(type) {
	case nil:
		return "unavailable"
	case *model.OrderedMap:
		n = v.Len()
		if key == "filament" {
			panels, _ := v.Get("panels")
			n = len(list(panels))
		}
		if key == "composerDependencies" {
			n = 0
			for _, group := range []string{"require", "require-dev"} {
				g, _ := v.Get(group)
				if packages, ok := g.(*model.OrderedMap); ok {
					n += packages.Len()
				}
			}
		}
	case []any:
		n = len(v)
	default:
		return "1 value"
	}
	return fmt.Sprintf("%d %s", n, unit)
}
