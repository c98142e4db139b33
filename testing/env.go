// Package testing holds helpers shared by printdesk test packages. Importing
// it flips the process into test mode so cmd/printdesk never dials Redis.
package testing

import (
	"os"
	"path/filepath"
	stdtesting "testing"
)

const testModeEnv = "PRINTDESK_TEST_MODE"

func init() {
	_ = os.Setenv(testModeEnv, "1")
	_ = os.Unsetenv("GOTENBERG_URL")
	_ = os.Unsetenv("KAFKA_BROKERS")
}

// Env points config loading at a missing .env file and sets kv for the
// duration of the test, so LoadConfig only sees what the test chose.
func Env(t stdtesting.TB, kv map[string]string) {
	t.Helper()
	t.Setenv("PRINTDESK_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

// Secrets are the minimum variables LoadConfig requires.
func Secrets() map[string]string {
	return map[string]string{"SESSION_SECRET": "test-session", "CSRF_SECRET": "test-csrf"}
}
