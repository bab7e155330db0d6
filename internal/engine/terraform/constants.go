package terraform

// Command argv templates. Callers copy before appending options.
var (
	InitCmd     = []string{"terraform", "init"}
	PlanCmd     = []string{"terraform", "plan"}
	ApplyCmd    = []string{"terraform", "apply"}
	DestroyCmd  = []string{"terraform", "destroy"}
	OutputCmd   = []string{"terraform", "output", "-json"}
	ShowPlanCmd = []string{"terraform", "show", "-json"}
	StateRmCmd  = []string{"terraform", "state", "rm"}
)

// AutoApproveFlag skips terraform's interactive approval prompt.
const AutoApproveFlag = "-auto-approve"

const (
	// EngineDir is the subdirectory of a project holding the terraform
	// root module.
	EngineDir = "engine"

	// PlanFilename is the saved plan produced by `tfpilot config`.
	PlanFilename = "tfpilot.tfplan"

	// PlanMetadataFilename is the JSON sidecar with the plan's resource
	// change counts, written next to the saved plan.
	PlanMetadataFilename = "tfpilot.tfplan.meta.json"

	// promptCheckChars: terraform prompts end with "Enter a value:".
	promptCheckChars = ":"
)
