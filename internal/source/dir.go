package source

import (
	"context"
	"io/fs"
	"os"

	"github.com/arnie-db/arnie/catalog"
	"github.com/arnie-db/arnie/migration"
	"github.com/pkg/errors"
)

const DefaultMigrationsFolder = "./migrations"

// Dir reads migration units from a directory tree, typically os.DirFS over
// a local folder or an embed.FS subtree. Listing is eager, unit bodies are
// read and parsed lazily at apply time.
type Dir struct {
	fsys fs.FS
}

func NewDir(folder string) *Dir {
	return &Dir{fsys: os.DirFS(folder)}
}

func NewDirFS(fsys fs.FS) *Dir {
	return &Dir{fsys: fsys}
}

// Entries lists the folder and returns the catalog in canonical order.
func (d *Dir) Entries(_ context.Context) ([]catalog.Entry, error) {
	dirEntries, err := fs.ReadDir(d.fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "could not read migrations folder")
	}

	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}

		names = append(names, de.Name())
	}

	return catalog.ListOrdered(names)
}

// Load reads and parses a single unit file.
func (d *Dir) Load(_ context.Context, name string) (*migration.Unit, error) {
	filename := name + "." + catalog.Extension

	contents, err := fs.ReadFile(d.fsys, filename)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read migration file [%s]", filename)
	}

	return parseUnit(name, contents)
}
