// Package main provides the entry point for the aimap CLI.
//
// aimap writes a single JSON snapshot of a Laravel application (database
// schema, models, routes, dependencies, admin panels, schedule and event
// listeners) for AI assistants to read before working on the code.
//
// Usage:
//
//	aimap map [project-root]
//	aimap map --compact --no-db
//
// See --help for all available options.
package main

// main is the entry point for aimap.
func main() {
	Execute()
}
