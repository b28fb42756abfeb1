package simulation

// Body is the moving tomato.
type Body struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
}

// Spawn places a resting body horizontally centred, one twentieth of the
// arena height below the top edge.
func Spawn(a Arena) Body {
	return Body{
		X:      a.Left + a.Width()/2,
		Y:      a.Top + a.Height()/SpawnFraction,
		Radius: a.BodyRadius(),
	}
}
