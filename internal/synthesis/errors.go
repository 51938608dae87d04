package synthesis

import "errors"

var (
	// ErrNotFound means there is nothing left to synthesize
	ErrNotFound = errors.New("nothing to synthesize")

	// ErrModelFailure means the post model returned nothing usable
	ErrModelFailure = errors.New("post model failed")

	// ErrCommentModelFailure means the inline comment model returned nothing usable
	ErrCommentModelFailure = errors.New("comment model failed")

	// ErrNoEntities means the post model extracted no entities
	ErrNoEntities = errors.New("model extracted no entities")
)
