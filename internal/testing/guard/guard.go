// Package guard flips the runtime into test mode when blank-imported from
// a test file, so package init code skips real side effects.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("MILA_TEST_MODE") == "" {
			_ = os.Setenv("MILA_TEST_MODE", "1")
		}
	})
}
