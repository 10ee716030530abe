// Package coordinator runs the update pipeline over the configured plugins.
//
// A run holds an advisory lock on the target folder, so a second run against
// the same folder fails fast instead of racing on the stable links. Plugins
// are processed one after another, or by a bounded pool of workers when more
// than one worker is configured. A failing plugin is logged and the run
// continues with the next one.
//
// The installed-version record is written once, at the end of a run, and only
// when a plugin was updated. Check-only runs never write it.
//
// When every plugin is processed, unmanaged jars in the target folder are
// inspected first and configuration suggestions are logged for the project
// pages they link to.
package coordinator
