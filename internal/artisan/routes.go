package artisan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nao1215/aimap/internal/model"
)

var (
	// ErrNoArtisan is returned when the project has no artisan script.
	ErrNoArtisan = errors.New("artisan script not found")

	// ErrCommandFailed is returned when artisan exits non-zero or times out.
	ErrCommandFailed = errors.New("artisan command failed")

	// ErrNoRoutes is returned when artisan reports no routes.
	ErrNoRoutes = errors.New("no routes found")

	// ErrUndecodable is returned when the output is not a JSON route list.
	ErrUndecodable = errors.New("could not decode route list")
)

// ansiPattern matches terminal colour escape sequences.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes colour codes from command output.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// ListRoutes runs "php artisan route:list --json" in root and decodes the
// result.
func ListRoutes(ctx context.Context, runner Runner, phpBinary, root string) ([]model.Route, error) {
	if _, err := os.Stat(filepath.Join(root, "artisan")); err != nil {
		return nil, fmt.Errorf("%w in %s", ErrNoArtisan, root)
	}

	res := runner.Run(ctx, root, phpBinary, "artisan", "route:list", "--json")
	if res.Err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommandFailed, res.Err)
	}
	if res.TimedOut {
		return nil, fmt.Errorf("%w: timed out", ErrCommandFailed)
	}

	out := strings.TrimSpace(StripANSI(res.Stdout))
	if res.ExitCode != 0 {
		if strings.Contains(strings.ToLower(out+res.Stderr), "doesn't have any routes") {
			return nil, ErrNoRoutes
		}
		return nil, fmt.Errorf("%w: exit code %d: %s", ErrCommandFailed, res.ExitCode, firstLine(res.Stderr, out))
	}

	return DecodeRoutes(out)
}

// DecodeRoutes decodes route:list JSON output. Lines printed before the
// JSON document, such as PHP deprecation notices, are skipped.
func DecodeRoutes(out string) ([]model.Route, error) {
	out = strings.TrimSpace(StripANSI(out))
	if out == "" {
		return nil, ErrNoRoutes
	}
	if !strings.HasPrefix(out, "[") {
		i := strings.Index(out, "\n[")
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUndecodable, firstLine(out))
		}
		out = out[i+1:]
	}

	var raw []rawRoute
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}
	if len(raw) == 0 {
		return nil, ErrNoRoutes
	}

	routes := make([]model.Route, 0, len(raw))
	for _, r := range raw {
		routes = append(routes, model.Route{
			Domain:     r.Domain,
			Method:     r.Method,
			URI:        r.URI,
			Name:       r.Name,
			Action:     r.Action,
			Middleware: r.middleware(),
		})
	}
	return routes, nil
}

// rawRoute is one route:list entry. Laravel 8 prints middleware as a
// newline separated string, later versions as a list.
type rawRoute struct {
	Domain     *string         `json:"domain"`
	Method     string          `json:"method"`
	URI        string          `json:"uri"`
	Name       *string         `json:"name"`
	Action     string          `json:"action"`
	Middleware json.RawMessage `json:"middleware"`
}

func (r rawRoute) middleware() []string {
	var list []string
	if err := json.Unmarshal(r.Middleware, &list); err == nil && list != nil {
		return list
	}
	var joined string
	if err := json.Unmarshal(r.Middleware, &joined); err == nil && joined != "" {
		return strings.Split(joined, "\n")
	}
	return []string{}
}

func firstLine(candidates ...string) string {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		line, _, _ := strings.Cut(c, "\n")
		return line
	}
	return ""
}
