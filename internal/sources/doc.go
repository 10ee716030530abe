// Package sources implements the update sources a plugin can be updated from.
//
// Every source answers three questions for a plugin: which version is the
// latest one, where it can be downloaded, and it performs the download into
// temporary storage. Sources are stateless after construction and may be
// shared by any number of plugins and goroutines.
//
// Current implementations:
//   - FileSource: versions and artifacts on the local filesystem
//   - DirectSource: configurable URLs with optional JSON path or regex extraction
//   - GitHubSource, GitLabSource: release assets of a repository
//   - HangarSource, ModrinthSource: plugin hosting platform APIs
//   - SpigotSource: SpigotMC resources via Spiget, falling back to GitHub
//   - TeamCitySource: artifacts of the latest successful CI build
//   - BukkitSource: the legacy CurseForge servermods API
//
// Absence of a release or an artifact is reported with ErrNotFound.
package sources
