package bodies

// Masses in solar masses.
const (
	SunMass     = 1.0
	JupiterMass = 9.547861e-4
	SaturnMass  = 2.858860e-4
)

// Heliocentric initial conditions (AU, AU/day) from the IMCCE Miriade
// ephemeris service, shared epoch.
var (
	jupiterPosition = Vec3{3.4707903364632, -3.3666298150704, -1.5275164476857}
	jupiterVelocity = Vec3{0.0054161298800, 0.0051281500076, 0.0020662323714}

	saturnPosition = Vec3{5.8139930169916, -7.3998049325634, -3.3068297277913}
	saturnVelocity = Vec3{0.0042287765130, 0.0030656447687, 0.0010842701680}
)

func Sun() Body     { return New("Sun", SunMass, Vec3{}, Vec3{}) }
func Jupiter() Body { return FromVelocity("Jupiter", JupiterMass, jupiterPosition, jupiterVelocity) }
func Saturn() Body  { return FromVelocity("Saturn", SaturnMass, saturnPosition, saturnVelocity) }

var catalog = map[string]func() Body{
	"sun":     Sun,
	"jupiter": Jupiter,
	"saturn":  Saturn,
}

// Lookup returns a catalog body by lower-case name.
func Lookup(name string) (Body, bool) {
	fn, ok := catalog[name]
	if !ok {
		return Body{}, false
	}
	return fn(), true
}

func SunJupiter() Set       { return Set{Sun(), Jupiter()} }
func SunJupiterSaturn() Set { return Set{Sun(), Jupiter(), Saturn()} }
