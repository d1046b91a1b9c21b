package bringup

import (
	"bytes"
	"errors"
	"io/fs"
	"os"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/normalize/internal/config"
)

// fingerprint hashes the derived script together with the module content.
func fingerprint(script string, content []byte) string {
	return mdfp.CalculateFingerprintFromParts(script, string(content))
}

// upToDate reports whether the cached record can be reused.
//
// In mtime mode the record must exist and neither the module nor the derived
// script may be newer than it. In fingerprint mode the record must exist and
// the stored fingerprint must match the current script and content.
func upToDate(mode config.ValidityMode, p Paths, modulePath, script string, content []byte) (bool, error) {
	rec, err := os.Stat(p.Record)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if mode == config.ValidityFingerprint {
		stored, err := os.ReadFile(p.Fingerprint)
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return string(bytes.TrimSpace(stored)) == fingerprint(script, content), nil
	}

	for _, dep := range []string{modulePath, p.Script} {
		info, err := os.Stat(dep)
		if err != nil {
			return false, err
		}
		if info.ModTime().After(rec.ModTime()) {
			return false, nil
		}
	}
	return true, nil
}

// writeIfChanged rewrites path only when its content differs, so the file's
// mtime tracks real changes.
func writeIfChanged(path string, content []byte, perm fs.FileMode) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	return true, writeAtomic(path, content, perm)
}

func writeAtomic(path string, content []byte, perm fs.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
