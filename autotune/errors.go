package autotune

import "fmt"

// Stage names a step of the correction pipeline.
type Stage string

const (
	StageDecode   Stage = "decode"
	StageEstimate Stage = "estimate"
	StageResolve  Stage = "resolve"
	StageShift    Stage = "shift"
	StageEncode   Stage = "encode"
)

// StageError reports the pipeline stage that failed. It unwraps to the
// stage's own error, so errors.Is works against the package sentinels
// (wavio.ErrDecode, f0.ErrInsufficientSignal, note.ErrUnknownNote,
// pitch.ErrInvalidRatio, wavio.ErrEncode).
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("autotune: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
