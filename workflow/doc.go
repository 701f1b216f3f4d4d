// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package workflow implements the workflow model, YAML parsing, multi-error
validation, dependency-graph layering, conditional gating, and the executor
that drives a parsed workflow's steps to completion.

# Overview

A workflow is a named, ordered list of steps. Each step names a plugin and
an input derived from a literal, from a previous step's output, or from
nothing. The package builds a DAG from each step's effective dependency set,
partitions it into layers with Kahn's algorithm, and executes steps layer by
layer — sequentially or with a bounded worker pool — honoring retries,
cache lookups, and conditional skips, while streaming ordered Events to the
caller.

# Core types

  - Workflow / Step        — the parsed in-memory model
  - Graph                  — effective dependencies, layers, cycle detection
  - Condition               — the {kind, field, operator, value} gate
  - Executor                — drives steps through their state machine
  - Event / RunSummary      — the ordered progress stream and terminal report

# Supporting packages

The executor is handed a PluginHost (internal/pluginhost) and a Cache
(internal/cache); neither is implemented in this package.
*/
package workflow
