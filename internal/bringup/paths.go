package bringup

import "path/filepath"

// Paths names the files owned by one module's bringup inside a build directory.
type Paths struct {
	Record      string // <module>.bringup
	Script      string // <module>.bringup.sh
	Failed      string // <module>.bringup.failed
	Lock        string // <module>.bringup.lock
	Fingerprint string // <module>.bringup.fingerprint
}

// PathsFor returns the bringup file names for module inside buildDir.
func PathsFor(buildDir, module string) Paths {
	record := filepath.Join(buildDir, module+".bringup")
	return Paths{
		Record:      record,
		Script:      record + ".sh",
		Failed:      record + ".failed",
		Lock:        record + ".lock",
		Fingerprint: record + ".fingerprint",
	}
}
