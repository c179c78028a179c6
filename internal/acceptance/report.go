package acceptance

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReportsEnv overrides the report directory.
const ReportsEnv = "CSVPAGE_TEST_REPORTS"

const defaultReportDir = "test-reports"

// ReportDir returns the directory JUnit reports are written to.
func ReportDir() string {
	if dir := strings.TrimSpace(os.Getenv(ReportsEnv)); dir != "" {
		return dir
	}
	return defaultReportDir
}

// ReportFormat creates the report directory and returns a godog format
// string that prints progress to the console and writes name.xml there.
func ReportFormat(name string) (string, error) {
	dir := ReportDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	return "pretty,junit:" + filepath.Join(dir, name+".xml"), nil
}
