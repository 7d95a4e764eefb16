// Package guard forces test mode on for any test binary that imports it,
// so entrypoints return before touching config, Redis or the network.
package guard

import (
	"os"
	"sync"
)

const testModeEnv = "CLEANMANAGER_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(testModeEnv) == "" {
			_ = os.Setenv(testModeEnv, "1")
		}
	})
}
