// Package registry holds the configured update sources and the plugins
// managed by the updater.
//
// A Registry is built once from the configuration:
//
//	reg, err := registry.New(ctx, cfg, env)
//	if err != nil {
//	    // duplicate source names are fatal
//	}
//	for _, plugin := range reg.Plugins() {
//	    // plugins whose source is unknown or that miss required
//	    // parameters are not listed here, see reg.Rejected()
//	}
//
// Names of sources and plugins are matched case-insensitively. The built-in
// sources (bukkit, github, gitlab, hangar, modrinth, spigot) are always
// registered and their names are reserved.
package registry
