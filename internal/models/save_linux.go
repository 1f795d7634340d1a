//go:build linux

package models

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func checkWritable(dir string) error {
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return fmt.Errorf("%w: directory %s is not writable: %w", ErrSave, dir, err)
	}
	return nil
}
