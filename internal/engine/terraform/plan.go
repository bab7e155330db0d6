package terraform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// MetadataSource names a plan metadata value that a default phase can use as
// its dynamic progress estimate.
type MetadataSource string

const (
	SourcePlanToAdd     MetadataSource = "plan.to_add"
	SourcePlanToChange  MetadataSource = "plan.to_change"
	SourcePlanToDestroy MetadataSource = "plan.to_destroy"
	SourcePlanToUpdate  MetadataSource = "plan.to_update"
	SourcePlanToMutate  MetadataSource = "plan.to_mutate"
)

// PlanMetadata carries the resource change counts of a saved terraform plan.
// It is written as a JSON sidecar next to the plan file during `config` and
// read back during `up` to size the apply progress estimate.
type PlanMetadata struct {
	ToAdd     int `json:"to_add"`
	ToChange  int `json:"to_change"`
	ToDestroy int `json:"to_destroy"`
}

// ToMutate is the total number of resources the plan touches.
func (p PlanMetadata) ToMutate() int { return p.ToAdd + p.ToChange + p.ToDestroy }

// ToUpdate is the number of resources added or changed, not destroyed.
func (p PlanMetadata) ToUpdate() int { return p.ToAdd + p.ToChange }

// Value resolves a metadata source name to its count. The second return is
// false for an unknown source.
func (p PlanMetadata) Value(source MetadataSource) (int, bool) {
	switch source {
	case SourcePlanToAdd:
		return p.ToAdd, true
	case SourcePlanToChange:
		return p.ToChange, true
	case SourcePlanToDestroy:
		return p.ToDestroy, true
	case SourcePlanToUpdate:
		return p.ToUpdate(), true
	case SourcePlanToMutate:
		return p.ToMutate(), true
	}
	return 0, false
}

// SavePlanMetadata writes the sidecar, creating parent directories as needed.
func SavePlanMetadata(metadata PlanMetadata, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating plan metadata directory: %w", err)
	}
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding plan metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("writing plan metadata: %w", err)
	}
	return nil
}

// LoadPlanMetadata reads the sidecar. A missing or unreadable file returns
// nil without error: stale or absent metadata only degrades the progress
// estimate, it never fails a run.
func LoadPlanMetadata(path string) *PlanMetadata {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var metadata PlanMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil
	}
	return &metadata
}

// planSummaryRe matches terraform's plan summary line, with or without ANSI
// color codes around the counts.
var planSummaryRe = regexp.MustCompile(`Plan: (\d+) to add, (\d+) to change, (\d+) to destroy\.`)

// ParsePlanSummary extracts metadata from a plan summary output line.
func ParsePlanSummary(line string) (*PlanMetadata, bool) {
	m := planSummaryRe.FindStringSubmatch(stripANSI(line))
	if m == nil {
		return nil, false
	}
	toAdd, _ := strconv.Atoi(m[1])
	toChange, _ := strconv.Atoi(m[2])
	toDestroy, _ := strconv.Atoi(m[3])
	return &PlanMetadata{ToAdd: toAdd, ToChange: toChange, ToDestroy: toDestroy}, true
}

// showPlan is the subset of `terraform show -json` output we decode.
type showPlan struct {
	ResourceChanges []struct {
		Change struct {
			Actions []string `json:"actions"`
		} `json:"change"`
	} `json:"resource_changes"`
}

// ParseShowJSON extracts metadata from `terraform show -json <planfile>`
// output by counting the planned actions per resource. A replace counts as
// one add and one destroy, matching terraform's own summary arithmetic.
func ParseShowJSON(data []byte) (*PlanMetadata, error) {
	var plan showPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("decoding plan json: %w", err)
	}

	var metadata PlanMetadata
	for _, rc := range plan.ResourceChanges {
		for _, action := range rc.Change.Actions {
			switch action {
			case "create":
				metadata.ToAdd++
			case "update":
				metadata.ToChange++
			case "delete":
				metadata.ToDestroy++
			}
		}
	}
	return &metadata, nil
}
