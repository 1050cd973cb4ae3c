// Package config provides configuration structures and utilities for
// removalscan. It defines default paths and network settings, reads
// overrides from the environment and loads the optional sources file that
// adds or toggles data sources.
package config
