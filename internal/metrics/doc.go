// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package metrics provides Prometheus metrics for the executor, cache, and
plugin host.

# Overview

Collector registers its metrics through promauto on construction, so
callers never manage a Registry by hand. Metrics are grouped by the
component that produces them: per-step outcome counts and durations from
the executor, hit/miss counters from the cache, and load-failure counters
from the plugin host.
*/
package metrics
