package domain

import "time"

// GenerationProgress names the stages of the space creation process.
type GenerationProgress string

const (
	// ProgressGatheringData covers DOM/API extraction.
	ProgressGatheringData GenerationProgress = "Gathering Data"

	// ProgressCreatingSpace covers job submission and backend synthesis.
	ProgressCreatingSpace GenerationProgress = "Creating Space"

	// ProgressInjectingUI covers portal construction.
	ProgressInjectingUI GenerationProgress = "Injecting into GUI"

	// ProgressCompleted is the terminal success stage.
	ProgressCompleted GenerationProgress = "Completed"

	// ProgressFailed is the terminal failure stage.
	ProgressFailed GenerationProgress = "Failed"
)

// Progression is the ordered list of stages, used to derive a progress
// percentage. Failed is not part of the ordered path.
var Progression = []GenerationProgress{
	ProgressGatheringData,
	ProgressCreatingSpace,
	ProgressInjectingUI,
	ProgressCompleted,
}

// Percent returns the fraction of the progression reached by stage p,
// in [0, 1]. Failed and unknown stages report 0.
func (p GenerationProgress) Percent() float64 {
	for i, stage := range Progression {
		if stage == p {
			return float64(i) / float64(len(Progression)-1)
		}
	}
	return 0
}

// Job represents one in-flight space creation request.
// A job is never reused: it is created at submission time, learns its space
// id once the discovery poll succeeds, and ends completed or failed.
type Job struct {
	// ID is the client-generated opaque job handle (UUIDv4).
	ID string

	// Name is the requested space name, if any.
	Name string

	// SpaceID is the backend-assigned space identifier. Empty until the
	// discovery poll resolves.
	SpaceID string
}

// SpaceResult is the terminal payload of a successful job.
type SpaceResult struct {
	// SpaceID is the canonical identifier of the created space.
	SpaceID string `json:"space_id"`

	// LayerID is the identifier of the initial layer, when reported.
	LayerID string `json:"layer_id,omitempty"`
}

// StoredSpace is a previously created space cached locally, keyed by the
// URL it was created from. At most one cached space exists per URL so the
// caller knows exactly which space to reopen for a page.
type StoredSpace struct {
	// Name is the user-visible space name.
	Name string

	// ID is the backend space identifier.
	ID string

	// DateCreated is when the space was created.
	DateCreated time.Time

	// URL is the exact page URL the space was created from.
	URL string

	// Host is the host component of URL.
	Host string

	// ConnectionParent is the name of the connection that created the space.
	ConnectionParent string
}
