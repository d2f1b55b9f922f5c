package config

// Section names a switchable part of the project map. The value is the
// suffix of the matching --no-<section> flag.
type Section string

// Switchable sections, in output order.
const (
	SectionEnv      Section = "env"
	SectionDB       Section = "db"
	SectionFiles    Section = "files"
	SectionModels   Section = "models"
	SectionRoutes   Section = "routes"
	SectionDeps     Section = "deps"
	SectionFilament Section = "filament"
	SectionSchedule Section = "schedule"
	SectionEvents   Section = "events"
)

// sectionDescriptions documents each switch for the --no-* flag help.
var sectionDescriptions = map[Section]string{
	SectionEnv:      "environment details",
	SectionDB:       "database schema",
	SectionFiles:    "directory structure",
	SectionModels:   "Eloquent models",
	SectionRoutes:   "routes",
	SectionDeps:     "composer dependencies",
	SectionFilament: "Filament panels",
	SectionSchedule: "scheduled commands",
	SectionEvents:   "event listeners",
}

// AllSections returns every switchable section in output order.
func AllSections() []Section {
	return []Section{
		SectionEnv,
		SectionDB,
		SectionFiles,
		SectionModels,
		SectionRoutes,
		SectionDeps,
		SectionFilament,
		SectionSchedule,
		SectionEvents,
	}
}

// Valid reports whether s is a known section.
func (s Section) Valid() bool {
	_, ok := sectionDescriptions[s]
	return ok
}

// Flag returns the command line switch that disables the section.
func (s Section) Flag() string {
	return "no-" + string(s)
}

// Description returns a short human description.
func (s Section) Description() string {
	return sectionDescriptions[s]
}
