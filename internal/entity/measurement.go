package entity

// Measurement is one extracted dist1 value for a single image file.
// Group is 0 for cup records and 1..7 for plunger records.
type Measurement struct {
	FileName   string  `json:"file_name"`
	Value      float64 `json:"value"`
	Group      int     `json:"group,omitempty"`
	IsGroupMax bool    `json:"is_group_max,omitempty"`
	Tier       string  `json:"tier,omitempty"`
	Missing    bool    `json:"missing,omitempty"`
}

// NoValue reports whether the record carries the "no value found" default.
func (m Measurement) NoValue() bool {
	return m.Value == 0
}
