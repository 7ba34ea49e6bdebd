package fileutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyResult describes a completed copy.
type CopyResult struct {
	Size   int64
	SHA256 string
}

// CopyFile streams src to dst, preserving the source permission bits.
// dst must not already exist.
func CopyFile(src, dst string) (CopyResult, error) {
	in, info, err := openSource(src)
	if err != nil {
		return CopyResult{}, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return CopyResult{}, err
	}
	defer out.Close()

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, hasher), in)
	if err != nil {
		_ = os.Remove(dst)
		return CopyResult{}, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return CopyResult{}, err
	}
	return CopyResult{Size: written, SHA256: hex.EncodeToString(hasher.Sum(nil))}, nil
}

// CopyFileVerified copies src to dst and then re-reads dst, comparing size and
// SHA256 with the source stream. Removes dst on mismatch.
func CopyFileVerified(src, dst string) (CopyResult, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return CopyResult{}, fmt.Errorf("stat source: %w", err)
	}

	result, err := CopyFile(src, dst)
	if err != nil {
		return CopyResult{}, err
	}
	if result.Size != srcInfo.Size() {
		_ = os.Remove(dst)
		return CopyResult{}, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), result.Size)
	}

	dstSum, err := HashFile(dst)
	if err != nil {
		_ = os.Remove(dst)
		return CopyResult{}, fmt.Errorf("hash copy: %w", err)
	}
	if dstSum != result.SHA256 {
		_ = os.Remove(dst)
		return CopyResult{}, fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return result, nil
}

// HashFile returns the hex SHA256 of a file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it into place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func openSource(src string) (*os.File, os.FileInfo, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, nil, err
	}
	info, err := in.Stat()
	if err != nil {
		_ = in.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		_ = in.Close()
		return nil, nil, fmt.Errorf("%s is a directory", src)
	}
	return in, info, nil
}
