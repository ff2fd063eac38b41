package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScenario = `
load:
  target:
    url: http://localhost:8080/api/orders
    method: POST
    contentType: application/json
    body: '{"symbol":"BTC-USD","qty":1}'
    bearerToken: tok
  virtualUsers: 25
  operationsPerUser: 100
  concurrency: 10
  delayMin: 5ms
  delayMax: 20ms
tests:
  - id: identity.AuthSuite.Login
    description: login returns a session token
    request:
      url: http://localhost:8080/api/auth/login
      method: POST
  - id: trading.OrderSuite.Submit
    dependsOn: [AuthSuite.Login]
    request:
      url: http://localhost:8080/api/orders
      method: POST
    expectStatus: 201
  - id: trading.OrderSuite.CancelAll
    skip: true
    skipReason: destructive against shared env
    request:
      url: http://localhost:8080/api/orders
      method: DELETE
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := loadScenario(writeScenario(t, sampleScenario))
	require.NoError(t, err)

	require.NotNil(t, s.Load)
	assert.Equal(t, 25, s.Load.VirtualUsers)
	assert.Equal(t, 100, s.Load.OperationsPerUser)
	assert.Equal(t, 10, s.Load.Concurrency)
	assert.Equal(t, "http://localhost:8080/api/orders", s.Load.Target.URL)

	require.Len(t, s.Tests, 3)
	assert.Equal(t, []string{"AuthSuite.Login"}, s.Tests[1].DependsOn)
	assert.Equal(t, 201, s.Tests[1].ExpectStatus)
	assert.True(t, s.Tests[2].Skip)
}

func TestLoadScenarioMissingPath(t *testing.T) {
	_, err := loadScenario("")
	assert.Error(t, err)

	_, err = loadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)

	d, err = parseDuration("1m30s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = parseDuration("ninety seconds")
	assert.Error(t, err)
}

func TestBuildSuite(t *testing.T) {
	s, err := loadScenario(writeScenario(t, sampleScenario))
	require.NoError(t, err)

	suite, err := buildSuite(s.Tests)
	require.NoError(t, err)
	assert.Equal(t, 3, suite.Len())
}

func TestBuildSuiteRejectsDuplicateIDs(t *testing.T) {
	_, err := buildSuite([]TestSpec{
		{ID: "a.S.One", Request: TargetSpec{URL: "http://x"}},
		{ID: "a.S.One", Request: TargetSpec{URL: "http://x"}},
	})
	assert.Error(t, err)
}
