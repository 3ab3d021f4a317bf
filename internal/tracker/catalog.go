package tracker

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Kind distinguishes how an entity's occurrences are derived.
type Kind int

const (
	// KindVariable entities respawn a fixed number of hours after a reported reset.
	KindVariable Kind = iota + 1
	// KindFixed entities recur on a weekly calendar.
	KindFixed
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Slot is one weekly (weekday, time-of-day) pair.
type Slot struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %02d:%02d", s.Weekday.String()[:3], s.Hour, s.Minute)
}

// EntityDefinition is immutable once the catalog is built.
type EntityDefinition struct {
	ID       string
	Name     string
	Location string
	Kind     Kind

	// IntervalHours is set for KindVariable.
	IntervalHours int
	// Slots is set for KindFixed, ordered by weekday then time.
	Slots []Slot
}

// Interval is the respawn duration of a variable-interval entity.
func (d EntityDefinition) Interval() time.Duration {
	return time.Duration(d.IntervalHours) * time.Hour
}

// CatalogError describes one invalid entity definition.
type CatalogError struct {
	ID     string
	Reason string
}

func (e *CatalogError) Error() string {
	if e.ID == "" {
		return "catalog: " + e.Reason
	}
	return fmt.Sprintf("catalog: entity %q: %s", e.ID, e.Reason)
}

// Catalog is the immutable set of trackable entities.
type Catalog struct {
	defs []EntityDefinition
	byID map[string]int
}

// NewCatalog validates defs and builds a catalog sorted by id. All problems
// are reported together.
func NewCatalog(defs []EntityDefinition) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(defs))}
	var errs []error
	for _, d := range defs {
		d.ID = normalizeID(d.ID)
		if err := validateDefinition(d); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.byID[d.ID]; dup {
			errs = append(errs, &CatalogError{ID: d.ID, Reason: "duplicate id"})
			continue
		}
		if strings.TrimSpace(d.Name) == "" {
			d.Name = DisplayName(d.ID)
		}
		if d.Kind == KindFixed {
			d.Slots = append([]Slot(nil), d.Slots...)
			sort.Slice(d.Slots, func(i, j int) bool { return slotLess(d.Slots[i], d.Slots[j]) })
		}
		c.byID[d.ID] = -1
		c.defs = append(c.defs, d)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(c.defs) == 0 {
		return nil, &CatalogError{Reason: "no entities defined"}
	}
	sort.Slice(c.defs, func(i, j int) bool { return c.defs[i].ID < c.defs[j].ID })
	for i, d := range c.defs {
		c.byID[d.ID] = i
	}
	return c, nil
}

func validateDefinition(d EntityDefinition) error {
	if d.ID == "" {
		return &CatalogError{Reason: "entity with empty id"}
	}
	if strings.ContainsAny(d.ID, ":\n\t") {
		return &CatalogError{ID: d.ID, Reason: "id must not contain ':', tabs or newlines"}
	}
	switch d.Kind {
	case KindVariable:
		if d.IntervalHours <= 0 {
			return &CatalogError{ID: d.ID, Reason: "interval hours must be positive"}
		}
	case KindFixed:
		if len(d.Slots) == 0 {
			return &CatalogError{ID: d.ID, Reason: "fixed schedule has no slots"}
		}
		seen := make(map[Slot]bool, len(d.Slots))
		for _, s := range d.Slots {
			if s.Weekday < time.Sunday || s.Weekday > time.Saturday {
				return &CatalogError{ID: d.ID, Reason: fmt.Sprintf("invalid weekday %d", s.Weekday)}
			}
			if s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59 {
				return &CatalogError{ID: d.ID, Reason: fmt.Sprintf("invalid time %02d:%02d", s.Hour, s.Minute)}
			}
			if seen[s] {
				return &CatalogError{ID: d.ID, Reason: "duplicate slot " + s.String()}
			}
			seen[s] = true
		}
	default:
		return &CatalogError{ID: d.ID, Reason: "unknown kind"}
	}
	return nil
}

func slotLess(a, b Slot) bool {
	if a.Weekday != b.Weekday {
		return a.Weekday < b.Weekday
	}
	if a.Hour != b.Hour {
		return a.Hour < b.Hour
	}
	return a.Minute < b.Minute
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Lookup finds a definition by id, ignoring case and surrounding spaces.
func (c *Catalog) Lookup(id string) (EntityDefinition, bool) {
	i, ok := c.byID[normalizeID(id)]
	if !ok {
		return EntityDefinition{}, false
	}
	return c.defs[i], true
}

// All returns every definition sorted by id.
func (c *Catalog) All() []EntityDefinition {
	return append([]EntityDefinition(nil), c.defs...)
}

// OfKind returns the definitions of one kind, sorted by id.
func (c *Catalog) OfKind(k Kind) []EntityDefinition {
	var out []EntityDefinition
	for _, d := range c.defs {
		if d.Kind == k {
			out = append(out, d)
		}
	}
	return out
}

func (c *Catalog) Len() int { return len(c.defs) }

// ---- YAML ----

type catalogFile struct {
	Variable []struct {
		ID       string `yaml:"id"`
		Name     string `yaml:"name"`
		Hours    int    `yaml:"hours"`
		Location string `yaml:"location"`
	} `yaml:"variable"`
	Fixed []struct {
		ID       string   `yaml:"id"`
		Name     string   `yaml:"name"`
		Location string   `yaml:"location"`
		Schedule []string `yaml:"schedule"`
	} `yaml:"fixed"`
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	defs := make([]EntityDefinition, 0, len(f.Variable)+len(f.Fixed))
	for _, v := range f.Variable {
		defs = append(defs, EntityDefinition{
			ID: v.ID, Name: v.Name, Location: v.Location,
			Kind: KindVariable, IntervalHours: v.Hours,
		})
	}
	var errs []error
	for _, fx := range f.Fixed {
		slots := make([]Slot, 0, len(fx.Schedule))
		for _, raw := range fx.Schedule {
			s, err := ParseSlot(raw)
			if err != nil {
				errs = append(errs, &CatalogError{ID: normalizeID(fx.ID), Reason: err.Error()})
				continue
			}
			slots = append(slots, s)
		}
		defs = append(defs, EntityDefinition{
			ID: fx.ID, Name: fx.Name, Location: fx.Location,
			Kind: KindFixed, Slots: slots,
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return NewCatalog(defs)
}

// LoadCatalog reads a YAML catalog from path.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(b)
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseSlot parses "Mon 11:30" (full day names and any case accepted).
func ParseSlot(raw string) (Slot, error) {
	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return Slot{}, fmt.Errorf("slot %q: want \"<weekday> HH:MM\"", raw)
	}
	wd, ok := weekdays[strings.ToLower(fields[0])]
	if !ok {
		return Slot{}, fmt.Errorf("slot %q: unknown weekday %q", raw, fields[0])
	}
	hh, mm, ok := strings.Cut(fields[1], ":")
	if !ok {
		return Slot{}, fmt.Errorf("slot %q: want HH:MM", raw)
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || len(mm) != 2 || h < 0 || h > 23 || m < 0 || m > 59 {
		return Slot{}, fmt.Errorf("slot %q: invalid time of day", raw)
	}
	return Slot{Weekday: wd, Hour: h, Minute: m}, nil
}
