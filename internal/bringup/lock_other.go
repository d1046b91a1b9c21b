//go:build !unix

package bringup

import "os"

// lockFile creates the lock file but cannot serialize across processes on
// this platform; in-process callers are still serialized by singleflight.
func lockFile(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return func() { _ = f.Close() }, nil
}
