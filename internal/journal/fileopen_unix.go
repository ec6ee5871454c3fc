//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package journal

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/intake/internal/errors"
)

// openNoFollow opens path read-only without following a symlink in the
// final component.
func openNoFollow(path string) (*os.File, error) {
	fd, err := syscall.Open(path, syscall.O_RDONLY|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, 0)
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("cannot read from symlink")
		}
		if stderrors.Is(err, syscall.ENOENT) {
			return nil, errors.NewNotFound("export file", path)
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}
