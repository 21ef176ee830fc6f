package world

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// logicText is a logic expression as written in YAML. Plain scalars such
// as true are kept as their source text.
type logicText string

// UnmarshalYAML keeps the scalar's literal value.
func (l *logicText) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: logic must be a scalar", n.Line)
	}
	*l = logicText(n.Value)
	return nil
}

// yamlWorld is the top-level world.yaml structure.
type yamlWorld struct {
	Start      string            `yaml:"start"`
	Hub        string            `yaml:"hub"`
	Completion string            `yaml:"completion"`
	KRool      string            `yaml:"krool"`
	Macros     map[string]string `yaml:"macros"`
	SlotKeys   map[int][]int     `yaml:"slot_keys"`
	Levels     []yamlLevel       `yaml:"levels"`
}

// yamlLevel is one Isles level entrance.
type yamlLevel struct {
	Level      string    `yaml:"level"`
	Lobby      string    `yaml:"lobby"`
	Entry      string    `yaml:"entry"`
	BossLobby  string    `yaml:"boss_lobby"`
	EntryLogic logicText `yaml:"entry_logic"`
	Fixed      bool      `yaml:"fixed"`
}

// yamlLevelFile is the structure of levels/*.yaml.
type yamlLevelFile struct {
	Level   string       `yaml:"level"`
	Regions []yamlRegion `yaml:"regions"`
}

type yamlRegion struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Transitions []yamlTransition `yaml:"transitions"`
	Events      []yamlEvent      `yaml:"events"`
	Locations   []yamlLocation   `yaml:"locations"`
}

type yamlTransition struct {
	To     string    `yaml:"to"`
	Logic  logicText `yaml:"logic"`
	Back   bool      `yaml:"back"`
	When   string    `yaml:"when"`
	Unless string    `yaml:"unless"`
}

type yamlEvent struct {
	Name  string    `yaml:"name"`
	Logic logicText `yaml:"logic"`
}

type yamlLocation struct {
	ID      string    `yaml:"id"`
	Name    string    `yaml:"name"`
	Kind    string    `yaml:"kind"`
	Logic   logicText `yaml:"logic"`
	Vanilla string    `yaml:"vanilla"`
}

// Content is the parsed, unresolved world description. Logic is still
// source text; Build resolves it against the active settings.
type Content struct {
	Start      string
	Hub        string
	Completion string
	KRool      string
	Macros     map[string]string
	SlotKeys   map[int][]int
	Levels     []LevelSpec
	Regions    []RegionSpec
}

// LevelSpec is an unresolved LevelInfo.
type LevelSpec struct {
	Level      string
	Lobby      string
	Entry      string
	BossLobby  string
	EntryLogic string
	Fixed      bool
}

// RegionSpec is an unresolved Region.
type RegionSpec struct {
	Key         string
	Name        string
	Level       string
	Transitions []TransitionSpec
	Events      []EventSpec
	Locations   []LocationSpec
}

// TransitionSpec is an unresolved static transition. When and Unless name
// settings flags that must be set or unset for the transition to exist.
type TransitionSpec struct {
	To     string
	Logic  string
	Back   bool
	When   string
	Unless string
}

// EventSpec is an unresolved event trigger.
type EventSpec struct {
	Name  string
	Logic string
}

// LocationSpec is an unresolved location.
type LocationSpec struct {
	Key     string
	Name    string
	Kind    string
	Logic   string
	Vanilla string
}

// LoadContent reads world.yaml and every levels/*.yaml under dir in fsys.
//
// Precondition: fsys contains dir/world.yaml and at least one level file.
// Postcondition: Returns the content with level files in lexical order, or
// a non-nil error naming the failing file.
func LoadContent(fsys fs.FS, dir string) (*Content, error) {
	worldPath := path.Join(dir, "world.yaml")
	data, err := fs.ReadFile(fsys, worldPath)
	if err != nil {
		return nil, fmt.Errorf("reading world file %s: %w", worldPath, err)
	}
	var yw yamlWorld
	if err := yaml.Unmarshal(data, &yw); err != nil {
		return nil, fmt.Errorf("parsing world YAML %s: %w", worldPath, err)
	}
	c := convertYAMLWorld(yw)

	levelDir := path.Join(dir, "levels")
	entries, err := fs.ReadDir(fsys, levelDir)
	if err != nil {
		return nil, fmt.Errorf("reading level directory %s: %w", levelDir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(levelDir, name))
		if err != nil {
			return nil, fmt.Errorf("reading level file %s: %w", name, err)
		}
		regions, err := LoadRegionsFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading level file %s: %w", name, err)
		}
		c.Regions = append(c.Regions, regions...)
	}
	if len(c.Regions) == 0 {
		return nil, fmt.Errorf("no level files found in %s", levelDir)
	}
	return c, nil
}

// LoadContentDir is LoadContent over a directory on disk.
func LoadContentDir(dir string) (*Content, error) {
	return LoadContent(os.DirFS(dir), ".")
}

// LoadRegionsFromBytes parses one level file.
//
// Postcondition: Every returned region carries the file's level tag.
func LoadRegionsFromBytes(data []byte) ([]RegionSpec, error) {
	var file yamlLevelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing level YAML: %w", err)
	}
	if file.Level == "" {
		return nil, fmt.Errorf("level must not be empty")
	}
	out := make([]RegionSpec, 0, len(file.Regions))
	for _, yr := range file.Regions {
		out = append(out, convertYAMLRegion(file.Level, yr))
	}
	return out, nil
}

func convertYAMLWorld(yw yamlWorld) *Content {
	c := &Content{
		Start:      yw.Start,
		Hub:        yw.Hub,
		Completion: yw.Completion,
		KRool:      yw.KRool,
		Macros:     yw.Macros,
		SlotKeys:   yw.SlotKeys,
	}
	if c.Macros == nil {
		c.Macros = make(map[string]string)
	}
	if c.SlotKeys == nil {
		c.SlotKeys = make(map[int][]int)
	}
	for _, yl := range yw.Levels {
		c.Levels = append(c.Levels, LevelSpec{
			Level:      yl.Level,
			Lobby:      yl.Lobby,
			Entry:      yl.Entry,
			BossLobby:  yl.BossLobby,
			EntryLogic: string(yl.EntryLogic),
			Fixed:      yl.Fixed,
		})
	}
	return c
}

func convertYAMLRegion(level string, yr yamlRegion) RegionSpec {
	r := RegionSpec{
		Key:   yr.ID,
		Name:  yr.Name,
		Level: level,
	}
	if r.Name == "" {
		r.Name = yr.ID
	}
	for _, yt := range yr.Transitions {
		r.Transitions = append(r.Transitions, TransitionSpec{
			To:     yt.To,
			Logic:  string(yt.Logic),
			Back:   yt.Back,
			When:   yt.When,
			Unless: yt.Unless,
		})
	}
	for _, ye := range yr.Events {
		r.Events = append(r.Events, EventSpec{Name: ye.Name, Logic: string(ye.Logic)})
	}
	for _, yl := range yr.Locations {
		loc := LocationSpec{
			Key:     yl.ID,
			Name:    yl.Name,
			Kind:    yl.Kind,
			Logic:   string(yl.Logic),
			Vanilla: yl.Vanilla,
		}
		if loc.Name == "" {
			loc.Name = yl.ID
		}
		r.Locations = append(r.Locations, loc)
	}
	return r
}
