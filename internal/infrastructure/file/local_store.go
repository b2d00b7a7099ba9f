package file

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
)

// LocalStore keeps uploaded import files under BaseDir.
type LocalStore struct {
	BaseDir  string
	MaxBytes int64
}

func NewLocalStore(baseDir string, maxBytes int64) *LocalStore {
	if baseDir == "" {
		baseDir = "."
	}
	return &LocalStore{BaseDir: baseDir, MaxBytes: maxBytes}
}

func (s *LocalStore) Save(ctx context.Context, fileName string, r io.Reader) (domain.StoredFile, error) {
	_ = ctx

	if err := os.MkdirAll(s.BaseDir, 0o755); err != nil {
		return domain.StoredFile{}, fmt.Errorf("create storage dir %s: %w", s.BaseDir, err)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(fileName)))
	path := filepath.Join(s.BaseDir, name)

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return domain.StoredFile{}, fmt.Errorf("create file %s: %w", path, err)
	}

	src := r
	if s.MaxBytes > 0 {
		src = io.LimitReader(r, s.MaxBytes+1)
	}

	hasher := xxhash.New()
	size, err := io.Copy(io.MultiWriter(dst, hasher), src)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && s.MaxBytes > 0 && size > s.MaxBytes {
		err = fmt.Errorf("file exceeds %d bytes", s.MaxBytes)
	}
	if err != nil {
		_ = os.Remove(path)
		return domain.StoredFile{}, fmt.Errorf("store file %s: %w", fileName, err)
	}

	return domain.StoredFile{
		Path:     name,
		Size:     size,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

func (s *LocalStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	_ = ctx

	file, err := os.Open(s.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	return file, nil
}

func (s *LocalStore) Remove(ctx context.Context, path string) error {
	_ = ctx

	if err := os.Remove(s.resolve(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file %s: %w", path, err)
	}
	return nil
}

func (s *LocalStore) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.BaseDir, path)
}
