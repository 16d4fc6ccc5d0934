// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sync

import (
	"errors"
	"fmt"

	"github.com/tomtom215/streamwatch/internal/models"
	"github.com/tomtom215/streamwatch/internal/validation"
)

// ErrInvalidFilter means a filter exceeds a Helix list limit or page size
// bound. Fatal at startup.
var ErrInvalidFilter = errors.New("invalid stream filter")

// PlanOptions tunes PlanShards.
type PlanOptions struct {
	// Legacy emits no shard for a filter without user logins, the way the
	// first deployments behaved. The default emits the filter as one shard.
	Legacy bool
}

// PlanShards splits raw into filters Helix accepts. User logins are the only
// chunked selector: more than 100 become consecutive shards of at most 100,
// every other field copied into each. Game ids, languages and user ids over
// the limit are rejected with ErrInvalidFilter.
//
// A zero page size is set to the Helix maximum. raw is not modified.
func PlanShards(raw models.StreamFilter, opts PlanOptions) ([]models.StreamFilter, error) {
	filter := raw.Clone()
	if filter.First == 0 {
		filter.First = models.MaxFilterValues
	}

	if verr := validation.ValidateStruct(&filter); verr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, verr)
	}
	if filter.After != "" && filter.Before != "" {
		return nil, fmt.Errorf("%w: after and before are mutually exclusive", ErrInvalidFilter)
	}

	logins := filter.UserLogins
	switch {
	case len(logins) == 0:
		if opts.Legacy {
			return []models.StreamFilter{}, nil
		}
		return []models.StreamFilter{filter}, nil

	case len(logins) <= models.MaxFilterValues:
		return []models.StreamFilter{filter}, nil
	}

	shards := make([]models.StreamFilter, 0, (len(logins)+models.MaxFilterValues-1)/models.MaxFilterValues)
	for start := 0; start < len(logins); start += models.MaxFilterValues {
		end := start + models.MaxFilterValues
		if end > len(logins) {
			end = len(logins)
		}
		shard := filter.Clone()
		shard.UserLogins = append([]string(nil), logins[start:end]...)
		shards = append(shards, shard)
	}
	return shards, nil
}
