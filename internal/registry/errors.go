package registry

import "errors"

// Sentinel errors for registry operations. Callers should use errors.Is
// to check.
var (
	// ErrSourceUnavailable indicates a source could not be reached
	// (network, auth, missing path). Resolution treats it as "try the
	// next entry".
	ErrSourceUnavailable = errors.New("registry: source unavailable")

	// ErrIntegrity indicates a downloaded archive failed its checksum
	// check. Never retried and never cached; silently accepting
	// corrupted content is unacceptable.
	ErrIntegrity = errors.New("registry: checksum mismatch")

	// ErrTemplateNotFound indicates no enabled source produced the
	// requested template, or a source holds no template under that name.
	ErrTemplateNotFound = errors.New("registry: template not found")

	// ErrTemplateProcessing indicates a template was located but its
	// descriptor is malformed. Propagates unchanged to the caller.
	ErrTemplateProcessing = errors.New("registry: invalid template descriptor")

	// ErrConfiguration indicates an invalid registry configuration, e.g.
	// duplicate entry names or a source missing required fields.
	ErrConfiguration = errors.New("registry: invalid configuration")
)
