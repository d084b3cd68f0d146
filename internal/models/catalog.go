package models

// Tag labels recipes (e.g. "Breakfast").
type Tag struct {
	ID   int64
	Name string
	Slug string
}

// Ingredient is a catalogue entry with its measurement unit.
// The same name may exist with several units.
type Ingredient struct {
	ID              int64
	Name            string
	MeasurementUnit string
}
