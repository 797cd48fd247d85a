package model

// ColorXY is a point in the CIE color space.
type ColorXY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LightCommand carries the light features to change. Nil fields are left untouched.
type LightCommand struct {
	On         *bool    `json:"on,omitempty"`
	Brightness *float64 `json:"brightness,omitempty"` // percent, 0-100
	Color      *ColorXY `json:"color,omitempty"`
	Mirek      *int     `json:"mirek,omitempty"`
	// TransitionMs sets dynamics.duration for the change.
	TransitionMs *int `json:"transition_ms,omitempty"`
}

func (c LightCommand) Empty() bool {
	return c.On == nil && c.Brightness == nil && c.Color == nil && c.Mirek == nil && c.TransitionMs == nil
}

// Ptr returns a pointer to v, for building commands inline.
func Ptr[T any](v T) *T { return &v }
