//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd)

package journal

import (
	"os"

	"github.com/hpungsan/intake/internal/errors"
)

// openNoFollow opens path read-only. O_NOFOLLOW is unavailable here;
// validatePath has already rejected a symlinked final component.
func openNoFollow(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("export file", path)
		}
		return nil, err
	}
	return f, nil
}
