package output

import (
	"encoding/xml"

	"github.com/ajxudir/ripen/pkg/formats"
)

// OutdatedResult is the envelope written by the json and xml formats.
//
// Fields:
//   - XMLName: XML root element name (used only for XML marshaling)
//   - Summary: Counts and the age thresholds that produced Packages
//   - Packages: Outdated dependencies after filtering
//   - Warnings: Packages whose publish times could not be retrieved (omitted if empty)
type OutdatedResult struct {
	XMLName  xml.Name                     `json:"-" xml:"outdatedResult"`
	Summary  OutdatedSummary              `json:"summary" xml:"summary"`
	Packages []formats.OutdatedDependency `json:"packages" xml:"packages>package"`
	Warnings []string                     `json:"warnings,omitempty" xml:"warnings>warning,omitempty"`
}

// OutdatedSummary holds summary statistics for outdated results.
//
// Fields:
//   - OutdatedPackages: Packages npm reported as outdated
//   - ReportedPackages: Packages left after the min-age filter
//   - FilteredPackages: Packages dropped because no newer version is old enough
//   - MinAgeDays: Minimum age applied, 0 when filtering was off
//   - MinAgePatchDays: Patch age applied within the selected release line
//   - Unavailable: Packages passed through without publish times
type OutdatedSummary struct {
	OutdatedPackages int `json:"outdated_packages" xml:"outdatedPackages"`
	ReportedPackages int `json:"reported_packages" xml:"reportedPackages"`
	FilteredPackages int `json:"filtered_packages" xml:"filteredPackages"`
	MinAgeDays       int `json:"min_age_days" xml:"minAgeDays"`
	MinAgePatchDays  int `json:"min_age_patch_days" xml:"minAgePatchDays"`
	Unavailable      int `json:"unavailable" xml:"unavailable"`
}

// NewOutdatedResult builds the envelope for a run.
//
// Parameters:
//   - outdatedCount: Number of packages before filtering
//   - deps: Packages after filtering
//   - warnings: Unavailable-source warnings
//   - minAgeDays, minAgePatchDays: Thresholds used
func NewOutdatedResult(outdatedCount int, deps []formats.OutdatedDependency, warnings []string, minAgeDays, minAgePatchDays int) *OutdatedResult {
	if deps == nil {
		deps = []formats.OutdatedDependency{}
	}
	return &OutdatedResult{
		Summary: OutdatedSummary{
			OutdatedPackages: outdatedCount,
			ReportedPackages: len(deps),
			FilteredPackages: outdatedCount - len(deps),
			MinAgeDays:       minAgeDays,
			MinAgePatchDays:  minAgePatchDays,
			Unavailable:      len(warnings),
		},
		Packages: deps,
		Warnings: warnings,
	}
}
