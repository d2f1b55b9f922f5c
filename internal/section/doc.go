// Package section implements the producers of the project map sections.
//
// Every producer reads the project through an explicit Env and returns one
// JSON-compatible value. Expected failures never escape a producer: an
// unreachable database, a missing file or an absent integration degrade
// the section to its empty value (or null for the admin panels) and are
// reported as warnings.
package section
