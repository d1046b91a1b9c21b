package project

import "errors"

var (
	// ErrRootUnreadable indicates the root directory itself could not be scanned.
	ErrRootUnreadable = errors.New("project root unreadable")

	// ErrFileReadFailed indicates reading the content of a module failed.
	ErrFileReadFailed = errors.New("module read failed")

	// ErrModuleNotFound indicates a path does not name a module of any discovered project.
	ErrModuleNotFound = errors.New("module not found")
)
