//go:build !linux

package models

import (
	"fmt"
	"os"
)

func checkWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrSave, dir)
	}
	return nil
}
