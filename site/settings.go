package site

import (
	"suorganizer/config"
)

var settings = config.Default()

// Configure sets the configuration used by handlers and templates. It must be
// called before the router starts serving.
func Configure(cfg *config.Config) {
	settings = cfg
	templatesCache.Range(func(key, _ any) bool {
		templatesCache.Delete(key)
		return true
	})
}
