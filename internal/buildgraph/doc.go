// Package buildgraph assembles the named targets of a project tree and runs
// them leaves first.
//
// Every project contributes the convenience targets build, test, doc and
// clean, prefixed with its namespace, plus one bringup and one tested file
// target per module. Prerequisites are either normal, where a rebuilt
// prerequisite makes the dependent stale, or order-only, where the
// prerequisite only has to finish first.
package buildgraph
