package domain

// Setting is one operator-editable runtime configuration entry.
type Setting struct {
	Key         string
	Value       string
	Description string
}
