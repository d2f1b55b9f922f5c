// Package filament lists the admin panels a Filament application registers.
//
// Panels are configured in code: a PanelProvider subclass builds each panel
// through a fluent chain in its panel() method. SourceRegistry replays that
// chain from source, picking up ids, paths and explicitly registered
// classes, and scans the directories named by the discover calls for the
// resources, pages and widgets Filament would find at boot.
package filament
