package dataset

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Backup copies the file at path to a timestamped sibling and returns the
// backup path. Run before any rewrite of the canonical dataset.
func Backup(path string) (string, error) {
	stamp := time.Now().Format("20060102_150405")
	backupPath := backupName(path, stamp)

	src, err := os.Open(path)
	if err != nil {
		return "", &FileError{Path: path, Message: "backup open failed", Cause: err}
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(backupPath)
	if err != nil {
		return "", &FileError{Path: backupPath, Message: "backup create failed", Cause: err}
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", &FileError{Path: backupPath, Message: "backup copy failed", Cause: err}
	}
	if err := dst.Close(); err != nil {
		return "", &FileError{Path: backupPath, Message: "backup close failed", Cause: err}
	}
	return backupPath, nil
}

func backupName(path, stamp string) string {
	if strings.HasSuffix(path, ".csv") {
		return fmt.Sprintf("%s_backup_%s.csv", strings.TrimSuffix(path, ".csv"), stamp)
	}
	return fmt.Sprintf("%s_backup_%s", path, stamp)
}
