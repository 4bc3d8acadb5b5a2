package arnie

import (
	"io/fs"

	"github.com/arnie-db/arnie/internal/source"
	"github.com/arnie-db/arnie/migration"
)

// UseDir reads migration units from a local folder.
func UseDir(folder string) OptionFunc {
	return func(m *Migrator) error {
		m.src = source.NewDir(folder)
		return nil
	}
}

// UseFS reads migration units from any fs.FS, an embed.FS subtree being the
// usual case.
func UseFS(fsys fs.FS) OptionFunc {
	return func(m *Migrator) error {
		m.src = source.NewDirFS(fsys)
		return nil
	}
}

// UseRegistry serves Go-native units registered programmatically.
func UseRegistry(r *migration.Registry) OptionFunc {
	return func(m *Migrator) error {
		m.src = r
		return nil
	}
}

// UseSource plugs in any custom unit source.
func UseSource(s Source) OptionFunc {
	return func(m *Migrator) error {
		m.src = s
		return nil
	}
}
