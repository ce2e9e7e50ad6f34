package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajxudir/ripen/pkg/errors"
	"github.com/ajxudir/ripen/pkg/versioning"
)

// TestParseInstalledTree tests the behavior of ParseInstalledTree.
//
// It verifies:
//   - Top-level dependencies and the project name are decoded
//   - Aliased installs get a ResolvedName from the tarball URL
//   - Empty output and a missing dependencies member yield an empty tree
//   - Non-object output is a MalformedResponseError
func TestParseInstalledTree(t *testing.T) {
	data := []byte(`{
		"name": "app",
		"dependencies": {
			"react": {"version": "18.2.0", "resolved": "https://registry.npmjs.org/react/-/react-18.2.0.tgz"},
			"my-lodash": {"version": "4.17.21", "resolved": "https://registry.npmjs.org/lodash/-/lodash-4.17.21.tgz"},
			"local-lib": {"version": "1.0.0", "resolved": "file:../local-lib"}
		}
	}`)

	tree, err := ParseInstalledTree(data)
	require.NoError(t, err)
	assert.Equal(t, "app", tree.Name)
	assert.Equal(t, []string{"local-lib", "my-lodash", "react"}, tree.Names())
	assert.Equal(t, "lodash", tree.Dependencies["my-lodash"].ResolvedName)
	assert.Empty(t, tree.Dependencies["react"].ResolvedName)
	assert.Empty(t, tree.Dependencies["local-lib"].ResolvedName)

	empty, err := ParseInstalledTree([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, empty.Names())

	noDeps, err := ParseInstalledTree([]byte(`{"name":"x"}`))
	require.NoError(t, err)
	assert.Empty(t, noDeps.Names())

	_, err = ParseInstalledTree([]byte(`["react"]`))
	assert.True(t, errors.IsMalformedResponse(err))

	_, err = ParseInstalledTree([]byte(`{"dependencies": []}`))
	assert.True(t, errors.IsMalformedResponse(err))
}

// TestRegistryNameFromTarball tests the behavior of registryNameFromTarball.
func TestRegistryNameFromTarball(t *testing.T) {
	tests := []struct {
		name     string
		resolved string
		want     string
	}{
		{"plain", "https://registry.npmjs.org/lodash/-/lodash-4.17.21.tgz", "lodash"},
		{"scoped", "https://registry.npmjs.org/@types/node/-/node-20.1.0.tgz", "@types/node"},
		{"escaped scope", "https://registry.npmjs.org/@types%2fnode/-/node-20.1.0.tgz", "@types/node"},
		{"path prefix", "https://npm.example.com/api/npm/remote/lodash/-/lodash-4.17.21.tgz", "lodash"},
		{"path prefix scoped", "https://npm.example.com/api/npm/@acme/ui/-/ui-1.0.0.tgz", "@acme/ui"},
		{"git", "git+ssh://git@github.com/acme/lib.git#abc123", ""},
		{"file", "file:../lib", ""},
		{"no tarball marker", "https://example.com/lodash.tgz", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, registryNameFromTarball(tt.resolved))
		})
	}
}

// TestParseOutdated tests the behavior of ParseOutdated.
//
// It verifies:
//   - Object entries are mapped to OutdatedDependency records
//   - Array entries keep the first location
//   - A missing type defaults to dependencies
//   - Empty output yields an empty map
//   - Non-object documents and entries are MalformedResponseErrors
func TestParseOutdated(t *testing.T) {
	data := []byte(`{
		"react": {"current": "18.2.0", "wanted": "18.2.0", "latest": "19.0.0", "location": "node_modules/react", "type": "dependencies"},
		"jest": [
			{"current": "29.0.0", "wanted": "29.7.0", "latest": "29.7.0", "location": "node_modules/jest", "type": "devDependencies"},
			{"current": "28.0.0", "wanted": "28.1.3", "latest": "29.7.0", "location": "packages/a/node_modules/jest", "type": "devDependencies"}
		],
		"left-pad": {"current": "1.0.0", "wanted": "1.3.0", "latest": "1.3.0"}
	}`)

	got, err := ParseOutdated(data)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, OutdatedDependency{
		Name: "react", Current: "18.2.0", Wanted: "18.2.0", Latest: "19.0.0",
		Location: "node_modules/react", Type: TypeDependencies,
	}, got["react"])
	assert.Equal(t, "node_modules/jest", got["jest"].Location)
	assert.Equal(t, TypeDevDependencies, got["jest"].Type)
	assert.Equal(t, TypeDependencies, got["left-pad"].Type)

	empty, err := ParseOutdated(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, bad := range []string{`[]`, `"x"`, `{"a": 1}`, `{"a": []}`, `{"a": {`} {
		_, err := ParseOutdated([]byte(bad))
		assert.True(t, errors.IsMalformedResponse(err), bad)
	}
}

// TestParseOutdatedReportedError tests npm's {"error": {...}} output.
//
// It verifies:
//   - The error object fails the parse with a *ReportedError
//   - The detail's first line stands in for a missing summary
//   - A real package named "error" is still a record
func TestParseOutdatedReportedError(t *testing.T) {
	got, err := ParseOutdated([]byte(`{"error":{"code":"E404","summary":"Not Found - GET https://registry.npmjs.org/ghost","detail":""}}`))
	assert.Nil(t, got)
	var reported *ReportedError
	require.ErrorAs(t, err, &reported)
	assert.Equal(t, "E404", reported.Code)
	assert.Equal(t, "npm outdated: E404: Not Found - GET https://registry.npmjs.org/ghost", err.Error())
	assert.False(t, errors.IsMalformedResponse(err))

	_, err = ParseOutdated([]byte(`{"error":{"code":"ETARGET","detail":"No matching version\nfor ghost@9"}}`))
	require.ErrorAs(t, err, &reported)
	assert.Equal(t, "No matching version", reported.Summary)

	got, err = ParseOutdated([]byte(`{"error":{"current":"1.0.0","wanted":"1.0.0","latest":"2.0.0","location":"node_modules/error"}}`))
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", got["error"].Latest)
}

// TestParseTimestamps tests the behavior of ParseTimestamps.
//
// It verifies:
//   - Version keys are kept verbatim
//   - Bookkeeping keys and non-string values are dropped
//   - A JSON array is rejected as malformed
func TestParseTimestamps(t *testing.T) {
	data := []byte(`{
		"created": "2020-01-01T00:00:00.000Z",
		"modified": "2025-01-01T00:00:00.000Z",
		"1.0.0": "2020-01-01T00:00:00.000Z",
		"1.1.0-beta.1": "2021-01-01T00:00:00.000Z",
		"broken": 42
	}`)

	ts, err := ParseTimestamps("pkg", data)
	require.NoError(t, err)
	assert.Equal(t, versioning.Timestamps{
		"1.0.0":        "2020-01-01T00:00:00.000Z",
		"1.1.0-beta.1": "2021-01-01T00:00:00.000Z",
	}, ts)

	_, err = ParseTimestamps("pkg", []byte(`["1.0.0"]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamps response for pkg")
}

// TestParsePackument tests the behavior of ParsePackument.
//
// It verifies:
//   - The time member is extracted from a full registry document
//   - A missing or null time member yields empty timestamps
//   - A non-object time member is malformed
func TestParsePackument(t *testing.T) {
	doc := []byte(`{
		"name": "left-pad",
		"versions": {"1.3.0": {}},
		"time": {"modified": "2024-01-01T00:00:00Z", "1.3.0": "2018-04-09T00:00:00Z"}
	}`)

	ts, err := ParsePackument("left-pad", doc)
	require.NoError(t, err)
	assert.Equal(t, versioning.Timestamps{"1.3.0": "2018-04-09T00:00:00Z"}, ts)

	ts, err = ParsePackument("left-pad", []byte(`{"name": "left-pad"}`))
	require.NoError(t, err)
	assert.Empty(t, ts)

	ts, err = ParsePackument("left-pad", []byte(`{"time": null}`))
	require.NoError(t, err)
	assert.Empty(t, ts)

	_, err = ParsePackument("left-pad", []byte(`{"time": ["1.0.0"]}`))
	require.Error(t, err)
	assert.True(t, errors.IsMalformedResponse(err))
	assert.Contains(t, err.Error(), "time field")
}

// TestOutdatedDependencyHelpers tests the small value helpers on the model.
func TestOutdatedDependencyHelpers(t *testing.T) {
	dep := OutdatedDependency{Name: "my-lodash", ResolvedName: "lodash", Latest: "4.17.21", Wanted: "4.17.20"}
	assert.Equal(t, "lodash", dep.RegistryName())
	assert.Equal(t, "my-lodash", OutdatedDependency{Name: "my-lodash", ResolvedName: " "}.RegistryName())

	updated := dep.WithLatest("4.17.0").WithWanted("4.16.0")
	assert.Equal(t, "4.17.0", updated.Latest)
	assert.Equal(t, "4.16.0", updated.Wanted)
	assert.Equal(t, "4.17.21", dep.Latest)

	for _, v := range []string{"", "git", "linked", "remote", " git "} {
		assert.True(t, IsNonSemver(v), v)
	}
	assert.False(t, IsNonSemver("1.0.0"))

	var nilTree *InstalledTree
	assert.Nil(t, nilTree.Names())
}
