// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

package feed

import "errors"

// The engine has exactly two hard failure modes, both caller configuration
// errors the request layer should surface as 4xx-equivalent responses.
// Every other boundary condition (empty pools, zero budget, unsatisfiable
// gap constraints, unknown authors, future timestamps) degrades gracefully
// to a smaller or unchanged result.
var (
	// ErrInvalidWeightConfig indicates a negative scoring weight.
	ErrInvalidWeightConfig = errors.New("invalid weight config")

	// ErrUnknownStrategy indicates an unrecognized injection strategy type.
	ErrUnknownStrategy = errors.New("unknown injection strategy")
)
