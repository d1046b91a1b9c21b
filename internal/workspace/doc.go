// Package workspace manages scratch directories for work that must not touch
// the source tree, such as rebuilding the report of a baseline release.
//
// Each workspace is a timestamped directory (e.g. normalize-20251214-122336)
// under a base directory. Cleanup removes it unless the workspace is kept for
// inspection.
package workspace
