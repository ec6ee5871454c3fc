package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/intake/internal/errors"
)

type pathMode int

const (
	pathRead  pathMode = iota // import
	pathWrite                 // export
)

// validatePath rejects traversal, anything but a .jsonl file, and symlinks
// as the final component. For reads the file must exist.
func validatePath(path string, mode pathMode) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != ".jsonl" {
		return errors.NewInvalidRequest("path must have .jsonl extension")
	}
	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	info, err := os.Lstat(absPath)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		return errors.NewInvalidRequest("path must not be a symlink")
	case os.IsNotExist(err) && mode == pathRead:
		return errors.NewNotFound("export file", path)
	}
	return nil
}

func containsTraversal(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == filepath.Separator }) {
		if part == ".." {
			return true
		}
	}
	return false
}
