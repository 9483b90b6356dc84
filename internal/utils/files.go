package utils

import (
	"io/fs"
	"path/filepath"
	"sort"
)

// FindFiles recursively finds all files under dir with the given extension,
// in lexical order
func FindFiles(dir, ext string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip vendored dependencies and hidden directories
		if d.IsDir() {
			name := d.Name()
			if path != dir && (name == "vendor" || (len(name) > 1 && name[0] == '.')) {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) == ext {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
