package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// ErrDirectoryAccess indicates the library directory cannot be used.
var ErrDirectoryAccess = errors.New("library directory not usable")

// CheckDirectory verifies that dir exists, is a directory, and is readable
// and writable by the current user.
func CheckDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist", ErrDirectoryAccess, dir)
		}
		return fmt.Errorf("%w: stat %s: %v", ErrDirectoryAccess, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDirectoryAccess, dir)
	}
	if err := unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("%w: %s: insufficient permissions: %v", ErrDirectoryAccess, dir, err)
	}
	return nil
}
