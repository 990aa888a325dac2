package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `{
  "name": "webshop",
  "dependencies": {
    "express": "^4.18.0",
    "axios": "~1.5.0"
  },
  "devDependencies": {
    "jest": "29.7.0"
  }
}`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func depByName(t *testing.T, deps []Dependency, name string) Dependency {
	t.Helper()
	for _, d := range deps {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("dependency %q not found", name)
	return Dependency{}
}

func TestParseDependencies_MissingManifest(t *testing.T) {
	_, _, err := ParseDependencies(t.TempDir(), Npm)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package.json")
}

func TestParseDependencies_MissingLockfileDegrades(t *testing.T) {
	dir := writeProject(t, map[string]string{"package.json": testManifest})

	deps, warns, err := ParseDependencies(dir, Npm)
	require.NoError(t, err)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "package-lock.json")

	// Degraded mode: direct dependencies only, every depth 0.
	assert.Len(t, deps, 3)
	for _, d := range deps {
		assert.True(t, d.Direct, "%s should be direct", d.Name)
		assert.Equal(t, 0, d.Depth, "%s should be at depth 0", d.Name)
	}
	assert.Equal(t, "4.18.0", depByName(t, deps, "express").Version)
	assert.Equal(t, "1.5.0", depByName(t, deps, "axios").Version)
}

func TestParseDependencies_NpmLockV3(t *testing.T) {
	lock := `{
  "name": "webshop",
  "lockfileVersion": 3,
  "packages": {
    "": {"name": "webshop"},
    "node_modules/express": {"version": "4.18.2"},
    "node_modules/axios": {"version": "1.5.0"},
    "node_modules/jest": {"version": "29.7.0"},
    "node_modules/accepts": {"version": "1.3.8"},
    "node_modules/express/node_modules/cookie": {"version": "0.5.0"},
    "node_modules/express/node_modules/cookie/node_modules/safe-buffer": {"version": "5.2.1"}
  }
}`
	dir := writeProject(t, map[string]string{
		"package.json":      testManifest,
		"package-lock.json": lock,
	})

	deps, warns, err := ParseDependencies(dir, Npm)
	require.NoError(t, err)
	assert.Empty(t, warns)
	assert.Len(t, deps, 6)

	express := depByName(t, deps, "express")
	assert.True(t, express.Direct)
	assert.Equal(t, 0, express.Depth)
	assert.Equal(t, "4.18.2", express.Version)

	// Hoisted transitive packages land at depth 1, never 0.
	accepts := depByName(t, deps, "accepts")
	assert.False(t, accepts.Direct)
	assert.Equal(t, 1, accepts.Depth)

	cookie := depByName(t, deps, "cookie")
	assert.Equal(t, 1, cookie.Depth)
	safeBuffer := depByName(t, deps, "safe-buffer")
	assert.Equal(t, 2, safeBuffer.Depth)
}

func TestParseDependencies_NpmLockV1(t *testing.T) {
	lock := `{
  "lockfileVersion": 1,
  "dependencies": {
    "express": {
      "version": "4.18.2",
      "dependencies": {
        "cookie": {"version": "0.5.0"}
      }
    },
    "axios": {"version": "1.5.0"}
  }
}`
	dir := writeProject(t, map[string]string{
		"package.json":      testManifest,
		"package-lock.json": lock,
	})

	deps, _, err := ParseDependencies(dir, Npm)
	require.NoError(t, err)

	assert.Equal(t, 0, depByName(t, deps, "express").Depth)
	cookie := depByName(t, deps, "cookie")
	assert.False(t, cookie.Direct)
	assert.Equal(t, 1, cookie.Depth)
}

func TestParseDependencies_YarnLock(t *testing.T) {
	lock := `# THIS IS AN AUTOGENERATED FILE. DO NOT EDIT THIS FILE DIRECTLY.
# yarn lockfile v1


express@^4.18.0:
  version "4.18.2"
  resolved "https://registry.yarnpkg.com/express/-/express-4.18.2.tgz"

"@babel/runtime@^7.12.5", "@babel/runtime@^7.20.0":
  version "7.23.2"
  resolved "https://registry.yarnpkg.com/@babel/runtime/-/runtime-7.23.2.tgz"

axios@~1.5.0:
  version "1.5.0"
`
	dir := writeProject(t, map[string]string{
		"package.json": testManifest,
		"yarn.lock":    lock,
	})

	deps, warns, err := ParseDependencies(dir, Yarn)
	require.NoError(t, err)
	assert.Empty(t, warns)

	express := depByName(t, deps, "express")
	assert.True(t, express.Direct)
	assert.Equal(t, "4.18.2", express.Version)

	runtime := depByName(t, deps, "@babel/runtime")
	assert.False(t, runtime.Direct)
	assert.Equal(t, 1, runtime.Depth)
	assert.Equal(t, "7.23.2", runtime.Version)
}

func TestParseDependencies_PnpmLock(t *testing.T) {
	lock := `lockfileVersion: '6.0'

dependencies:
  express:
    specifier: ^4.18.0
    version: 4.18.2

packages:

  /express@4.18.2:
    resolution: {integrity: sha512-abc}
    engines: {node: '>= 0.10.0'}

  /@babel/runtime@7.23.2:
    resolution: {integrity: sha512-def}

  /safe-buffer@5.2.1(supports-color@8.1.1):
    resolution: {integrity: sha512-ghi}
`
	dir := writeProject(t, map[string]string{
		"package.json":   testManifest,
		"pnpm-lock.yaml": lock,
	})

	deps, _, err := ParseDependencies(dir, Pnpm)
	require.NoError(t, err)
	assert.Len(t, deps, 3)

	express := depByName(t, deps, "express")
	assert.True(t, express.Direct)
	assert.Equal(t, "4.18.2", express.Version)

	runtime := depByName(t, deps, "@babel/runtime")
	assert.Equal(t, "7.23.2", runtime.Version)
	assert.Equal(t, 1, runtime.Depth)

	// Peer suffix is not part of the resolved version.
	assert.Equal(t, "5.2.1", depByName(t, deps, "safe-buffer").Version)
}

func TestParseDependencies_PnpmLockV5Keys(t *testing.T) {
	lock := `lockfileVersion: 5.4

packages:

  /lodash/4.17.21:
    resolution: {integrity: sha512-abc}

  /@scope/pkg/1.2.3:
    resolution: {integrity: sha512-def}
`
	dir := writeProject(t, map[string]string{
		"package.json":   testManifest,
		"pnpm-lock.yaml": lock,
	})

	deps, _, err := ParseDependencies(dir, Pnpm)
	require.NoError(t, err)
	assert.Equal(t, "4.17.21", depByName(t, deps, "lodash").Version)
	assert.Equal(t, "1.2.3", depByName(t, deps, "@scope/pkg").Version)
}

func TestParseDependencies_CorruptLockfileDegrades(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"package.json":      testManifest,
		"package-lock.json": "{not json",
	})

	deps, warns, err := ParseDependencies(dir, Npm)
	require.NoError(t, err)
	require.Len(t, warns, 1)
	assert.Len(t, deps, 3)
}

func TestParsePackageManager(t *testing.T) {
	for _, valid := range []string{"npm", "yarn", "pnpm"} {
		_, ok := ParsePackageManager(valid)
		assert.True(t, ok, valid)
	}
	_, ok := ParsePackageManager("cargo")
	assert.False(t, ok)
}
