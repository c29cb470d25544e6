// Package bodies maps the names of solar system bodies to their NAIF IDs.
package bodies

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrUnknownBody is returned for names and IDs which are not in the table.
var ErrUnknownBody = errors.New("unknown body")

// Body defines a solar system body or barycenter.
type Body struct {
	ID     int
	Name   string
	Radius float64 // km, zero for barycenters
	μ      float64
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (b Body) GM() float64 {
	return b.μ
}

// String implements the Stringer interface.
func (b Body) String() string {
	return fmt.Sprintf("%s (%d)", b.Name, b.ID)
}

// builtin holds the barycenters, the Sun, the planets and their major moons.
// GM values are in km^3/s^2 and include the satellites for barycenters.
var builtin = []struct {
	Body
	aliases []string
}{
	{Body{0, "SOLAR SYSTEM BARYCENTER", 0, 1.32712440041279e11 + 2.2031868551e4 + 3.2485859200e5 + 4.0350323562548e5 + 4.2828375816e4 + 1.26712764e8 + 3.7940584841800e7 + 5.794556e6 + 6.836527100580e6 + 9.7600e2}, []string{"SSB", "SOLAR_SYSTEM_BARYCENTER"}},
	{Body{1, "MERCURY BARYCENTER", 0, 2.2031868551e4}, nil},
	{Body{2, "VENUS BARYCENTER", 0, 3.2485859200e5}, nil},
	{Body{3, "EARTH BARYCENTER", 0, 4.0350323562548e5}, []string{"EMB", "EARTH MOON BARYCENTER", "EARTH-MOON BARYCENTER"}},
	{Body{4, "MARS BARYCENTER", 0, 4.2828375816e4}, nil},
	{Body{5, "JUPITER BARYCENTER", 0, 1.26712764e8}, nil},
	{Body{6, "SATURN BARYCENTER", 0, 3.7940584841800e7}, nil},
	{Body{7, "URANUS BARYCENTER", 0, 5.794556e6}, nil},
	{Body{8, "NEPTUNE BARYCENTER", 0, 6.836527100580e6}, nil},
	{Body{9, "PLUTO BARYCENTER", 0, 9.7600e2}, nil},
	{Body{10, "SUN", 695700, 1.32712440017987e11}, nil},
	{Body{199, "MERCURY", 2439.7, 2.2031868551e4}, nil},
	{Body{299, "VENUS", 6051.8, 3.24858599e5}, nil},
	{Body{399, "EARTH", 6378.1363, 3.98600433e5}, nil},
	{Body{301, "MOON", 1737.4, 4.902800118e3}, nil},
	{Body{499, "MARS", 3396.19, 4.28283100e4}, nil},
	{Body{401, "PHOBOS", 11.08, 7.087e-4}, nil},
	{Body{402, "DEIMOS", 6.2, 9.6e-5}, nil},
	{Body{599, "JUPITER", 71492.0, 1.266865361e8}, nil},
	{Body{501, "IO", 1821.6, 5.959916e3}, nil},
	{Body{502, "EUROPA", 1560.8, 3.202739e3}, nil},
	{Body{503, "GANYMEDE", 2631.2, 9.887834e3}, nil},
	{Body{504, "CALLISTO", 2410.3, 7.179289e3}, nil},
	{Body{699, "SATURN", 60268.0, 3.7931208e7}, nil},
	{Body{606, "TITAN", 2575.0, 8.978138e3}, nil},
	{Body{799, "URANUS", 25559.0, 5.7939513e6}, nil},
	{Body{899, "NEPTUNE", 24764.0, 6.835100e6}, nil},
	{Body{801, "TRITON", 1352.6, 1.4276e3}, nil},
	{Body{999, "PLUTO", 1188.3, 8.696e2}, nil},
	{Body{901, "CHARON", 606.0, 1.058e2}, nil},
}

// Table maps names to IDs. It is safe for concurrent use.
type Table struct {
	mu     sync.RWMutex
	byID   map[int]Body
	byName map[string]int
}

// New returns a table with the built-in bodies.
func New() *Table {
	t := &Table{byID: make(map[int]Body), byName: make(map[string]int)}
	for _, b := range builtin {
		t.add(b.Body)
		for _, alias := range b.aliases {
			t.byName[normalize(alias)] = b.ID
		}
	}
	return t
}

// Add registers a body, or an alias of a known ID. A body added last takes the name over.
func (t *Table) Add(id int, name string, gm float64) error {
	if normalize(name) == "" {
		return fmt.Errorf("empty name for body %d", id)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.byID[id]; ok {
		t.byName[normalize(name)] = id
		if gm > 0 && b.μ == 0 {
			b.μ = gm
			t.byID[id] = b
		}
		return nil
	}
	t.add(Body{ID: id, Name: normalize(name), μ: gm})
	return nil
}

func (t *Table) add(b Body) {
	t.byID[b.ID] = b
	t.byName[normalize(b.Name)] = b.ID
}

// NameToID returns the NAIF ID of a body name. Integer strings are IDs themselves.
func (t *Table) NameToID(name string) (int, error) {
	if id, err := strconv.Atoi(strings.TrimSpace(name)); err == nil {
		return id, nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byName[normalize(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownBody, name)
	}
	return id, nil
}

// IDToName returns the name of a NAIF ID.
func (t *Table) IDToName(id int) (string, error) {
	b, err := t.Body(id)
	return b.Name, err
}

// Body returns the body of a NAIF ID.
func (t *Table) Body(id int) (Body, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.byID[id]
	if !ok {
		return Body{}, fmt.Errorf("%w: %d", ErrUnknownBody, id)
	}
	return b, nil
}

// Bodies returns all the bodies by increasing ID.
func (t *Table) Bodies() []Body {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Body, 0, len(t.byID))
	for _, b := range t.byID {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Label returns the name of a body if known, or its ID.
func (t *Table) Label(id int) string {
	if name, err := t.IDToName(id); err == nil {
		return name
	}
	return strconv.Itoa(id)
}

// normalize upper cases a name and collapses its spaces and underscores.
func normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToUpper(strings.ReplaceAll(name, "_", " "))), " ")
}
