package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/athulyan/docforge-go/internal/config"
	"github.com/athulyan/docforge-go/internal/retryio"
	"github.com/athulyan/docforge-go/internal/util"
)

// Local stores artifacts under a root directory on disk. Writes go through
// the retry helper since local filesystems are where transient lock and
// sharing conflicts actually show up.
type Local struct {
	root   string
	policy retryio.Policy
}

func NewLocal(root string, policy retryio.Policy) *Local {
	return &Local{root: root, policy: policy}
}

func retryPolicy(cfg *config.Config) retryio.Policy {
	return retryio.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelayMs) * time.Millisecond,
	}
}

func (l *Local) abs(path string) (string, error) {
	return util.SecureJoin(l.root, path)
}

func (l *Local) Save(ctx context.Context, path string, data []byte) (string, error) {
	full, err := l.abs(path)
	if err != nil {
		return "", err
	}
	if err := retryio.WriteFile(ctx, full, data, l.policy); err != nil {
		return "", err
	}
	return full, nil
}

func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	full, err := l.abs(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (l *Local) Delete(ctx context.Context, path string) error {
	full, err := l.abs(path)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (l *Local) List(ctx context.Context, dir string) ([]string, error) {
	full, err := l.abs(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	err = filepath.WalkDir(full, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			rel, relErr := filepath.Rel(l.root, p)
			if relErr != nil {
				return relErr
			}
			paths = append(paths, rel)
		}
		return nil
	})
	return paths, err
}
