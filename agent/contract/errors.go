package contract

import "errors"

var (
	ErrGeneration     = errors.New("model generation failed")
	ErrInvalidStage   = errors.New("invalid funnel stage")
	ErrRecordNotFound = errors.New("lead record not found")
	ErrValidation     = errors.New("validation failed")
	ErrIndexing       = errors.New("semantic index write failed")
	ErrEmbedding      = errors.New("embedding failed")
)
