package model

import (
	"fmt"
	"strings"
)

// ControllerNamespace is the handler prefix removed from compact route lines.
const ControllerNamespace = `App\Http\Controllers\`

// Route is one entry of `php artisan route:list --json`.
type Route struct {
	Domain     *string  `json:"domain"`
	Method     string   `json:"method"`
	URI        string   `json:"uri"`
	Name       *string  `json:"name"`
	Action     string   `json:"action"`
	Middleware []string `json:"middleware"`
}

// CompactLine renders the route as "[METHOD] uri -> handler (Name: name)".
// The controller namespace is stripped and a missing name reads "N/A".
func (r Route) CompactLine() string {
	action := strings.ReplaceAll(r.Action, ControllerNamespace, "")
	name := "N/A"
	if r.Name != nil {
		name = *r.Name
	}
	return fmt.Sprintf("[%s] %s -> %s (Name: %s)", r.Method, r.URI, action, name)
}
