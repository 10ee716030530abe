// Package sync implements the update cycle of a single plugin.
//
// Manager.Process drives one plugin through the stages
//
//   - Resolve: ask the plugin's source for the latest version
//   - Gate: compare it with the installed version from the version record
//   - Fetch: download the artifact into temporary storage
//   - Inspect: detect jar, zip or unknown content; extract the jar from a zip
//   - Store: move the artifact into the target folder under its versioned name
//   - Link: point the stable "<name>.jar" link at the versioned file
//
// A plugin without a newer version ends with OutcomeNoUpdate. Failures are
// returned as *Error carrying the stage they happened in and never affect
// other plugins. On success the version record is updated in memory; writing
// it is left to the caller (see the coordinator subpackage).
package sync
