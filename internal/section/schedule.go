package section

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// Files holding schedule definitions, relative to the project root.
const (
	ConsoleKernelFile = "app/Console/Kernel.php"
	ConsoleRoutesFile = "routes/console.php"
)

var (
	// kernelSchedulePattern matches $schedule->command(...)->...; in the
	// console kernel.
	kernelSchedulePattern = regexp.MustCompile(`(?s)\$schedule->command\((.*?)\)->(.*?);`)

	// facadeSchedulePattern matches Schedule::command(...)->...; in
	// routes/console.php.
	facadeSchedulePattern = regexp.MustCompile(`(?s)Schedule::command\((.*?)\)->(.*?);`)
)

// Schedule reports the scheduled artisan commands as written in source.
// The extraction is textual: nested parentheses or unusual formatting can
// cut a declaration short.
type Schedule struct {
	env *Env
}

// Key implements pipeline.Producer.
func (Schedule) Key() string { return KeyScheduledCommands }

// Produce implements pipeline.Producer.
func (s Schedule) Produce(_ context.Context) (any, error) {
	commands := []string{}
	sources := []struct {
		file    string
		pattern *regexp.Regexp
	}{
		{ConsoleKernelFile, kernelSchedulePattern},
		{ConsoleRoutesFile, facadeSchedulePattern},
	}
	for _, src := range sources {
		data, err := os.ReadFile(s.env.Project.Path(src.file))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				s.env.Logger.Warn("could not parse scheduled commands", "file", src.file, "error", err)
			}
			continue
		}
		commands = append(commands, ScheduledCommands(string(data), src.pattern)...)
	}
	return commands, nil
}

// ScheduledCommands returns every match of pattern in content with line
// breaks removed and surrounding whitespace trimmed.
func ScheduledCommands(content string, pattern *regexp.Regexp) []string {
	matches := pattern.FindAllString(content, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.NewReplacer("\r", "", "\n", "").Replace(m)
		out = append(out, strings.TrimSpace(m))
	}
	return out
}
