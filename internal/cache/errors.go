package cache

import "errors"

// ErrInvariant marks a violated block-processing precondition or internal
// consistency invariant: a non-contiguous block height, or a spent outpoint
// whose producing transaction is not cached when it must be. Per spec, both
// are fatal to the engine — callers must not feed further blocks after one.
var ErrInvariant = errors.New("cache: invariant violation")

// ErrDescriptorNotFound is returned by operations addressing a descriptor
// by an index that is not currently registered.
var ErrDescriptorNotFound = errors.New("cache: descriptor not found")
