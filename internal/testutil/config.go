package testutil

import (
	"os"
	"strconv"
)

const (
	// TestPriceChartingToken names the env var carrying a live credential
	// for integration runs against the real vendor API.
	TestPriceChartingToken = "TEST_PRICECHARTING_TOKEN"

	DefaultTestToken = "test-token"
)

// GetTestToken returns the value of envVar, or defaultValue when unset.
func GetTestToken(envVar, defaultValue string) string {
	if token := os.Getenv(envVar); token != "" {
		return token
	}
	return defaultValue
}

// GetTestPriceChartingToken returns the vendor API token for tests.
func GetTestPriceChartingToken() string {
	return GetTestToken(TestPriceChartingToken, DefaultTestToken)
}

// IsTestMode reports whether live-API calls should be stubbed. Defaults
// to true so the suite runs offline.
func IsTestMode() bool {
	testMode := os.Getenv("TEST_MODE")
	if testMode == "" {
		return true
	}
	enabled, _ := strconv.ParseBool(testMode)
	return enabled
}
