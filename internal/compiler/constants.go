package compiler

// Limits
const (
	// MaxGroups is the highest group number a pattern may use.
	MaxGroups = 65535

	// MaxNames is the largest number of named groups.
	MaxNames = 10000

	// MaxNameLength is the longest allowed group name.
	MaxNameLength = 32

	// MaxRepeat is the largest {m,n} bound.
	MaxRepeat = 65535
)

// Config defaults applied by Compile for zero fields.
const (
	// DefaultNestLimit bounds parenthesis nesting.
	DefaultNestLimit = 250

	// DefaultMaxSize bounds the compiled program length in bytes.
	DefaultMaxSize = 65535

	// DefaultDuplicateLimit is the largest number of copies a repeated group
	// is expanded into before a REPEAT prefix is used instead.
	DefaultDuplicateLimit = 8

	// DefaultWorkspaceLimit bounds the forward-reference arena.
	DefaultWorkspaceLimit = 2048
)
