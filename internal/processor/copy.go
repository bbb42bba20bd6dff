package processor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileMode is the permission every staged file receives.
const FileMode os.FileMode = 0o600

// CopyFile copies src to dst with FileMode, creating parent directories and
// replacing an existing destination.
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FileMode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := dstFile.Close(); err != nil {
		return err
	}

	// OpenFile keeps the mode of a file that already existed.
	return os.Chmod(dst, FileMode)
}
