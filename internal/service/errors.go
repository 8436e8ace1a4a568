package service

import (
	"errors"
	"fmt"
)

// IngestStage tells the handler layer which phase of ingestion failed,
// which is what decides the response status.
type IngestStage string

const (
	StageDecode     IngestStage = "decode"
	StageValidation IngestStage = "validation"
	StageStorage    IngestStage = "storage"
	StageMetadata   IngestStage = "metadata"
)

type IngestError struct {
	Stage IngestStage
	Err   error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Stage, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

func ingestErr(stage IngestStage, err error) *IngestError {
	return &IngestError{Stage: stage, Err: err}
}

var (
	ErrInvalidImageID = errors.New("invalid image id")
	ErrImageNotFound  = errors.New("image not found")
	ErrCorruptData    = errors.New("stored image data is corrupted or unreadable")
)
