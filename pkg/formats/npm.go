package formats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ajxudir/ripen/pkg/errors"
	"github.com/ajxudir/ripen/pkg/verbose"
	"github.com/ajxudir/ripen/pkg/versioning"
)

// Registry bookkeeping keys that appear next to versions in the "time" object.
var timeBookkeepingKeys = []string{"created", "modified", "unpublished"}

// decodeObject decodes a JSON document whose top level must be an object.
//
// Empty or whitespace-only input decodes to an empty map, because npm prints
// nothing when there is nothing to report.
//
// Parameters:
//   - source: Name of the producer, used in error messages (e.g., "npm ls")
//   - pkg: Package the document belongs to, if any
//   - data: Raw JSON bytes
//
// Returns:
//   - map[string]json.RawMessage: Top-level members
//   - error: MalformedResponseError when the document is not a JSON object
func decodeObject(source, pkg string, data []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	if trimmed[0] != '{' {
		return nil, errors.NewMalformedResponseError(source, pkg, "expected a JSON object")
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &members); err != nil {
		return nil, errors.NewMalformedResponseError(source, pkg, err.Error())
	}
	if members == nil {
		members = map[string]json.RawMessage{}
	}
	return members, nil
}

// ParseInstalledTree parses the output of `npm ls --json`.
//
// It performs the following operations:
//   - Validates that the document is a JSON object
//   - Decodes the top-level dependencies map
//   - Derives ResolvedName for packages installed under an alias
//
// Parameters:
//   - data: Raw npm ls output
//
// Returns:
//   - *InstalledTree: The installed top-level packages (never nil on success)
//   - error: MalformedResponseError when the output is not an object
func ParseInstalledTree(data []byte) (*InstalledTree, error) {
	members, err := decodeObject("npm ls", "", data)
	if err != nil {
		return nil, err
	}

	tree := &InstalledTree{Dependencies: map[string]InstalledPackage{}}
	if raw, ok := members["name"]; ok {
		_ = json.Unmarshal(raw, &tree.Name)
	}

	raw, ok := members["dependencies"]
	if !ok {
		return tree, nil
	}

	var deps map[string]InstalledPackage
	if err := json.Unmarshal(raw, &deps); err != nil {
		return nil, errors.NewMalformedResponseError("npm ls", "", "dependencies: "+err.Error())
	}

	for name, pkg := range deps {
		if resolved := registryNameFromTarball(pkg.Resolved); resolved != "" && resolved != name {
			pkg.ResolvedName = resolved
			verbose.Debugf("Package %s is an alias of %s", name, resolved)
		}
		tree.Dependencies[name] = pkg
	}

	return tree, nil
}

// registryNameFromTarball extracts the package name from a registry tarball URL.
//
// Registry tarballs follow "<registry>/<name>/-/<file>.tgz", where name may be
// scoped ("@scope/name" or "@scope%2fname").
//
// Parameters:
//   - resolved: The "resolved" field of an npm ls entry
//
// Returns:
//   - string: The package name, or "" when the URL is not a registry tarball
func registryNameFromTarball(resolved string) string {
	u, err := url.Parse(strings.TrimSpace(resolved))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}

	path := u.EscapedPath()
	idx := strings.Index(path, "/-/")
	if idx <= 0 {
		return ""
	}

	name, err := url.PathUnescape(strings.TrimPrefix(path[:idx], "/"))
	if err != nil {
		return ""
	}

	// Registries mounted below a path prefix keep only the trailing name segments.
	parts := strings.Split(name, "/")
	switch {
	case len(parts) >= 2 && strings.HasPrefix(parts[len(parts)-2], "@"):
		return parts[len(parts)-2] + "/" + parts[len(parts)-1]
	default:
		return parts[len(parts)-1]
	}
}

// outdatedEntry mirrors one value of `npm outdated --json --long`.
// npmErrorBody is the object npm prints under a top-level "error" key when a
// --json command fails.
type npmErrorBody struct {
	Code    string `json:"code"`
	Summary string `json:"summary"`
	Detail  string `json:"detail"`
}

// ReportedError is a failure npm described in its JSON output instead of a
// result, e.g. {"error":{"code":"E404",...}}.
type ReportedError struct {
	Source  string
	Code    string
	Summary string
}

// Error returns "<source>: <code>: <summary>", leaving out empty parts.
func (e *ReportedError) Error() string {
	parts := []string{e.Source}
	for _, p := range []string{e.Code, e.Summary} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ": ")
}

// reportedError returns the npm error carried in members, or nil. A package
// that happens to be named "error" is told apart by its version fields.
func reportedError(source string, members map[string]json.RawMessage) error {
	raw, ok := members["error"]
	if !ok {
		return nil
	}
	var entry outdatedEntry
	if json.Unmarshal(raw, &entry) == nil && (entry.Current != "" || entry.Wanted != "" || entry.Latest != "") {
		return nil
	}
	var body npmErrorBody
	if err := json.Unmarshal(raw, &body); err != nil || (body.Code == "" && body.Summary == "" && body.Detail == "") {
		return nil
	}
	summary := body.Summary
	if summary == "" {
		summary, _, _ = strings.Cut(body.Detail, "\n")
	}
	return &ReportedError{Source: source, Code: body.Code, Summary: strings.TrimSpace(summary)}
}

type outdatedEntry struct {
	Current  string `json:"current"`
	Wanted   string `json:"wanted"`
	Latest   string `json:"latest"`
	Location string `json:"location"`
	Type     string `json:"type"`
}

// ParseOutdated parses the output of `npm outdated --json --long`.
//
// npm 7+ emits an array for a package installed at several locations; the
// first entry is kept. A missing type defaults to "dependencies". A failed
// query, which npm reports as a top-level "error" object, is returned as a
// *ReportedError rather than as a record.
//
// Parameters:
//   - data: Raw npm outdated output
//
// Returns:
//   - map[string]OutdatedDependency: Records keyed by package name
//   - error: *ReportedError when npm reported a failure; MalformedResponseError
//     when the output is not an object of objects
func ParseOutdated(data []byte) (map[string]OutdatedDependency, error) {
	members, err := decodeObject("npm outdated", "", data)
	if err != nil {
		return nil, err
	}
	if err := reportedError("npm outdated", members); err != nil {
		return nil, err
	}

	result := make(map[string]OutdatedDependency, len(members))
	for name, raw := range members {
		entry, err := decodeOutdatedEntry(name, raw)
		if err != nil {
			return nil, err
		}

		depType := entry.Type
		if depType == "" {
			depType = TypeDependencies
		}

		result[name] = OutdatedDependency{
			Name:     name,
			Current:  entry.Current,
			Wanted:   entry.Wanted,
			Latest:   entry.Latest,
			Location: entry.Location,
			Type:     depType,
		}
	}

	return result, nil
}

func decodeOutdatedEntry(name string, raw json.RawMessage) (outdatedEntry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []outdatedEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return outdatedEntry{}, errors.NewMalformedResponseError("npm outdated", name, err.Error())
		}
		if len(entries) == 0 {
			return outdatedEntry{}, errors.NewMalformedResponseError("npm outdated", name, "empty location list")
		}
		if len(entries) > 1 {
			verbose.Debugf("Package %s is outdated at %d locations, using %s", name, len(entries), entries[0].Location)
		}
		return entries[0], nil
	}

	var entry outdatedEntry
	if err := json.Unmarshal(trimmed, &entry); err != nil {
		return outdatedEntry{}, errors.NewMalformedResponseError("npm outdated", name, err.Error())
	}
	return entry, nil
}

// ParseTimestamps parses a version to publish-time object such as the output
// of `npm view <pkg> time --json`.
//
// Bookkeeping keys (created, modified, unpublished) and non-string values are
// dropped.
//
// Parameters:
//   - pkg: The package the document belongs to
//   - data: Raw JSON object
//
// Returns:
//   - versioning.Timestamps: The version timestamps (empty when none are listed)
//   - error: MalformedResponseError when the document is not a JSON object
func ParseTimestamps(pkg string, data []byte) (versioning.Timestamps, error) {
	members, err := decodeObject("timestamps", pkg, data)
	if err != nil {
		return nil, err
	}
	return timestampsFromMembers(members), nil
}

// ParsePackument extracts the "time" object from a full registry document
// (the JSON served at <registry>/<name>).
//
// Parameters:
//   - pkg: The package the document belongs to
//   - data: Raw registry document
//
// Returns:
//   - versioning.Timestamps: The version timestamps (empty when "time" is absent)
//   - error: MalformedResponseError when the document or its "time" member is not an object
func ParsePackument(pkg string, data []byte) (versioning.Timestamps, error) {
	members, err := decodeObject("registry", pkg, data)
	if err != nil {
		return nil, err
	}

	raw, ok := members["time"]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return versioning.Timestamps{}, nil
	}

	timeMembers, err := decodeObject("registry", pkg, raw)
	if err != nil {
		return nil, fmt.Errorf("time field: %w", err)
	}
	return timestampsFromMembers(timeMembers), nil
}

func timestampsFromMembers(members map[string]json.RawMessage) versioning.Timestamps {
	ts := make(versioning.Timestamps, len(members))
	for key, raw := range members {
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		ts[key] = value
	}
	for _, key := range timeBookkeepingKeys {
		delete(ts, key)
	}
	return ts
}
