package generator

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/cory-johannsen/dkrando/content"
	"github.com/cory-johannsen/dkrando/internal/game/entrance"
	"github.com/cory-johannsen/dkrando/internal/game/world"
)

// Content is the parsed world and door data shared by every seed.
type Content struct {
	World *world.Content
	Doors *entrance.Table
}

// LoadContent reads world/ and doors/ from fsys.
//
// Postcondition: Returns the parsed content or the first load error.
func LoadContent(fsys fs.FS) (*Content, error) {
	w, err := world.LoadContent(fsys, "world")
	if err != nil {
		return nil, fmt.Errorf("loading world: %w", err)
	}
	doors, err := entrance.LoadTable(fsys, "doors")
	if err != nil {
		return nil, fmt.Errorf("loading doors: %w", err)
	}
	return &Content{World: w, Doors: doors}, nil
}

// LoadContentDir reads content from dir, or the bundled content when dir
// is empty.
func LoadContentDir(dir string) (*Content, error) {
	if dir == "" {
		return LoadContent(content.FS)
	}
	return LoadContent(os.DirFS(dir))
}
