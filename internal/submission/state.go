// Package submission turns a local file plus metadata into a validated,
// uploaded and persisted asset.
package submission

import "fmt"

// State is the position of one submission attempt.
type State int

const (
	Idle State = iota
	FileSelected
	Validated
	Rejected
	Blocked
	UploadingMain
	UploadingPreview
	Persisting
	Succeeded
	Failed
)

var stateNames = [...]string{
	Idle:             "idle",
	FileSelected:     "file_selected",
	Validated:        "validated",
	Rejected:         "rejected",
	Blocked:          "blocked",
	UploadingMain:    "uploading_main",
	UploadingPreview: "uploading_preview",
	Persisting:       "persisting",
	Succeeded:        "succeeded",
	Failed:           "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transition happens for this attempt.
func (s State) Terminal() bool {
	switch s {
	case Rejected, Blocked, Succeeded, Failed:
		return true
	}
	return false
}

// RejectedError is a hard validation failure. The file can never be submitted.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return "submission rejected: " + e.Reason }

// BlockedError is a soft gate. The attempt can proceed once the caller
// supplies what is missing.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string { return "submission blocked: " + e.Reason }

// Gate reasons shown to the user.
const (
	ReasonUnsupportedType = "unsupported type"
	ReasonPreviewRequired = "preview required"
	ReasonTagCount        = "between 5 and 10 tags are required"
	ReasonPackPrice       = "pack price must be between 4 and 50"
	ReasonTitleRequired   = "title is required"
	ReasonPlatform        = "platform is required"
	ReasonAssetType       = "asset type is required"
	ReasonUnknownType     = "asset type is not offered for this platform"
	ReasonEmptyFile       = "file is empty"
)
