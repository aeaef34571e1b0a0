package withdrawal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// errSourceRemain means the file was copied but the source could not be removed.
var errSourceRemain = errors.New("source left behind after copy")

// MoveFile moves src into dstDir keeping its base name. It renames when possible and falls back
// to copy and remove, for instance across devices.
func MoveFile(src, dstDir string) error {
	dst := filepath.Join(dstDir, filepath.Base(src))
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dstDir, err)
	}
	if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %s: %v", errSourceRemain, src, err)
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
