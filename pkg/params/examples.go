package params

// Example is a named formula offered in the examples list.
type Example struct {
	Name    string `json:"name"`
	Formula string `json:"formula"`
}

// Examples are the predefined surfaces. The first one is the startup
// formula and matches the bootstrap mesh.
var Examples = []Example{
	{Name: "Sphere", Formula: "x*x+y*y+z*z-30"},
	{Name: "Torus", Formula: "(x^2+y^2+z^2+6^2-3^2)^2-4*6^2*(x^2+y^2)"},
	{Name: "A1", Formula: "x^2+y^2-z^2"},
	{Name: "Squared off Sphere", Formula: "x^4+y^4+z^4-100"},
	{Name: "Saddle", Formula: "x+y^2-z^2"},
}

// LookupExample returns the example with the given name.
func LookupExample(name string) (Example, bool) {
	for _, e := range Examples {
		if e.Name == name {
			return e, true
		}
	}
	return Example{}, false
}
