// Package project gives read-only access to a Laravel application on disk:
// its environment (.env plus process variables), its configuration values,
// its composer manifest and lock file, and the installed framework version.
package project
