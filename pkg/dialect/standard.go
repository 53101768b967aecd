package dialect

import "github.com/leapstack-labs/leapmigrate/pkg/token"

// Tokens for features shared by several dialects. They are registered once
// here and wired per dialect by Builder.Build from the config flags.
var (
	// TokenDColon is the :: cast operator.
	TokenDColon = token.Register("::")
	// TokenIlike is the case-insensitive LIKE operator.
	TokenIlike = token.Register("ILIKE")
	// TokenQualify starts the window filter clause.
	TokenQualify = token.Register("QUALIFY")
)
