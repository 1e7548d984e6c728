// assets/embed.go
//
// Files compiled into the binary:
//   - messages.yaml: default post templates.
//   - sql/*.sql:     round archive migrations, applied in lexical order.

package assets

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed messages.yaml sql/*.sql
var FS embed.FS

// Messages returns the default message templates document.
func Messages() ([]byte, error) {
	return FS.ReadFile("messages.yaml")
}

// Migrations returns the embedded migration file names, sorted.
func Migrations() ([]string, error) {
	files, err := fs.Glob(FS, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
