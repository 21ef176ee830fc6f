package entrance

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/logic"
	"github.com/cory-johannsen/dkrando/internal/game/world"
)

// yamlDoorFile is the structure of doors/*.yaml.
type yamlDoorFile struct {
	Level string     `yaml:"level"`
	Doors []yamlDoor `yaml:"doors"`
}

// yamlDoor is one door record. Pointer fields distinguish unset from zero.
type yamlDoor struct {
	Name     string    `yaml:"name"`
	Map      string    `yaml:"map"`
	Region   string    `yaml:"region"`
	Position []float64 `yaml:"position"`
	RX       float64   `yaml:"rx"`
	RZ       float64   `yaml:"rz"`
	Scale    *float64  `yaml:"scale"`
	Kongs    []string  `yaml:"kongs"`
	Group    int       `yaml:"group"`
	Moveless *bool     `yaml:"moveless"`
	Logic    yaml.Node `yaml:"logic"`
	Vanilla  string    `yaml:"vanilla"`
	Type     string    `yaml:"type"`
}

// Table holds every door slot grouped by level, in record order.
type Table struct {
	byLevel [][]Door
}

// NewTable returns a table holding doors.
func NewTable(doors ...Door) *Table {
	t := &Table{byLevel: make([][]Door, int(item.Helm)+1)}
	for _, d := range doors {
		t.byLevel[d.Level] = append(t.byLevel[d.Level], d)
	}
	return t
}

// LoadTable reads every *.yaml door file under dir in fsys.
//
// Postcondition: Returns the table with files in lexical order, or an error
// naming the failing file and record.
func LoadTable(fsys fs.FS, dir string) (*Table, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading door directory %s: %w", dir, err)
	}
	var doors []Door
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading door file %s: %w", name, err)
		}
		loaded, err := LoadDoorsFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading door file %s: %w", name, err)
		}
		doors = append(doors, loaded...)
	}
	if len(doors) == 0 {
		return nil, fmt.Errorf("no door files found in %s", dir)
	}
	return NewTable(doors...), nil
}

// LoadTableDir is LoadTable over a directory on disk.
func LoadTableDir(dir string) (*Table, error) {
	return LoadTable(os.DirFS(dir), ".")
}

// LoadDoorsFromBytes parses one door file.
func LoadDoorsFromBytes(data []byte) ([]Door, error) {
	var file yamlDoorFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing door YAML: %w", err)
	}
	level, err := item.ParseLevel(file.Level)
	if err != nil {
		return nil, err
	}
	out := make([]Door, 0, len(file.Doors))
	for i, yd := range file.Doors {
		d, err := convertYAMLDoor(level, yd)
		if err != nil {
			return nil, fmt.Errorf("door %d (%q): %w", i, yd.Name, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func convertYAMLDoor(level item.Level, yd yamlDoor) (Door, error) {
	if yd.Name == "" || yd.Region == "" {
		return Door{}, fmt.Errorf("name and region must not be empty")
	}
	if len(yd.Position) != 4 {
		return Door{}, fmt.Errorf("position must hold x, y, z, rotation")
	}
	b := NewDoor(yd.Name, yd.Map, yd.Region, level).
		WithPosition(yd.Position[0], yd.Position[1], yd.Position[2], yd.Position[3]).
		WithTilt(yd.RX, yd.RZ).
		WithGroup(yd.Group).
		WithLogic(yd.Logic.Value)
	if yd.Scale != nil {
		b.WithScale(*yd.Scale)
	}
	if yd.Moveless != nil {
		b.WithMoveless(*yd.Moveless)
	}
	if len(yd.Kongs) > 0 {
		kongs := make([]item.Kong, 0, len(yd.Kongs))
		for _, name := range yd.Kongs {
			k, err := item.ParseKong(name)
			if err != nil {
				return Door{}, err
			}
			kongs = append(kongs, k)
		}
		b.WithKongs(kongs...)
	}
	vanilla, err := ParsePlacement(yd.Vanilla)
	if err != nil {
		return Door{}, err
	}
	typ, err := ParseDoorType(yd.Type)
	if err != nil {
		return Door{}, err
	}
	if vanilla != PlacedNone && !typ.CanHost(vanilla) {
		return Door{}, fmt.Errorf("type %s cannot host its vanilla %s", typ, vanilla)
	}
	return b.WithVanilla(vanilla).WithType(typ).Build(), nil
}

// Doors returns the doors of level l. The slice is owned by the table.
func (t *Table) Doors(l item.Level) []Door {
	if int(l) < 0 || int(l) >= len(t.byLevel) {
		return nil
	}
	return t.byLevel[l]
}

// All returns every door in level then record order.
func (t *Table) All() []Door {
	var out []Door
	for _, ds := range t.byLevel {
		out = append(out, ds...)
	}
	return out
}

// Len returns the number of doors.
func (t *Table) Len() int {
	n := 0
	for _, ds := range t.byLevel {
		n += len(ds)
	}
	return n
}

// Clone returns a copy whose placements can be written independently.
func (t *Table) Clone() *Table {
	c := &Table{byLevel: make([][]Door, len(t.byLevel))}
	for i, ds := range t.byLevel {
		c.byLevel[i] = append([]Door(nil), ds...)
	}
	return c
}

// Bind resolves each door's region against g and parses its logic with p.
//
// Postcondition: Returns nil when every door's region exists, or the first
// unresolvable door.
func (t *Table) Bind(g *world.Graph, p *logic.Parser) error {
	for _, ds := range t.byLevel {
		for i := range ds {
			d := &ds[i]
			id, ok := g.RegionByKey(d.RegionKey)
			if !ok {
				return fmt.Errorf("door %q: unknown region %q", d.Name, d.RegionKey)
			}
			expr, err := p.Parse(d.LogicSource)
			if err != nil {
				return fmt.Errorf("door %q: %w", d.Name, err)
			}
			d.Region = id
			d.Logic = expr
		}
	}
	return nil
}
