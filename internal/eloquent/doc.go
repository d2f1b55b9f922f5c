// Package eloquent describes Laravel Eloquent models by reading their PHP
// source.
//
// Each model is reported with the table it maps to, its mass assignment and
// serialization lists, its attribute casts and the relations declared on it.
// Defaults follow Eloquent's own rules, inherited declarations are resolved
// through parent classes found in the same directory, and relations are
// recognised from the declared return type of public methods without
// parameters. No application code is executed.
package eloquent
