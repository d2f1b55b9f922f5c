package model

// ModelDescriptor is the statically derived description of one Eloquent
// model class.
type ModelDescriptor struct {
	// Class is the fully qualified class name.
	Class string `json:"class"`

	// Table is the backing table, explicit or derived from the class name.
	Table string `json:"table"`

	// Fillable lists mass-assignable attributes.
	Fillable []string `json:"fillable"`

	// Guarded lists attributes protected from mass assignment.
	Guarded []string `json:"guarded"`

	// Hidden lists attributes excluded from serialization.
	Hidden []string `json:"hidden"`

	// Casts maps attribute names to cast types, in declaration order.
	Casts *OrderedMap `json:"casts"`

	// Relationships maps method names to Relationship values.
	Relationships *OrderedMap `json:"relationships"`
}

// Relationship is a declared association between two models.
type Relationship struct {
	// Type is the short relation class name, e.g. "HasMany".
	Type string `json:"type"`

	// RelatedModel is the fully qualified class of the related model.
	RelatedModel string `json:"related_model"`
}
