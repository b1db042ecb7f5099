package network

import "errors"

// Error kinds surfaced by the engine. Recoverable conditions (degraded
// topologies, NoData rasters) are reported as state/flags on read paths;
// these sentinels cover structural errors and write-path violations.
var (
	// ErrInvalidAggregationRange: position outside [0,1], or a point
	// topology given a ranged aggregation.
	ErrInvalidAggregationRange = errors.New("invalid aggregation range")

	// ErrSegmentNotFound: a path id that does not exist in the network.
	// Raised on write paths; on read paths a missing path degrades the
	// topology instead.
	ErrSegmentNotFound = errors.New("path segment not found")

	// ErrTopologyNotFound: unknown topology id.
	ErrTopologyNotFound = errors.New("topology not found")

	// ErrNetworkMutation: a split/merge/delete/update precondition was
	// violated. The network is left unchanged.
	ErrNetworkMutation = errors.New("network mutation error")

	// ErrTopologyDegraded: derived fields were requested for a topology
	// whose underlying paths no longer exist. The last computed values are
	// still returned alongside this error.
	ErrTopologyDegraded = errors.New("topology is degraded, resnap required")
)
