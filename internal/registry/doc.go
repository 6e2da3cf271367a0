// Package registry locates named templates across heterogeneous sources
// (local filesystem, git repository, HTTP archive, package registry) and
// presents a uniform metadata and file-tree contract to the generation
// stage. Sources are configured as prioritized entries; resolution tries
// enabled entries sequentially in ascending priority order and caches the
// first successful result with time-based invalidation.
package registry
