// Package vcs wraps the go-git operations normalize needs from the
// repository holding a project: tags, changes since a tag, commit log and a
// file snapshot of a historical tag.
package vcs
