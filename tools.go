//go:build tools

// Package sessionhub pins the code generators used by go:generate.
package sessionhub

import (
	_ "go.uber.org/mock/mockgen"
)
