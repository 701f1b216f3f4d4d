// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package cache provides a file-based, content-addressed cache: a keyed
mapping from (cache_key, input_digest) to a stored output string, backed
by files under a known directory.

# Overview

Manager owns a directory of cache entries. Writes go through a
write-to-temp-then-rename sequence so concurrent readers never observe a
partially written entry. Reads that fail for any reason — missing file,
permission error, anything — are treated as a miss, never as a fatal
error; the cache never participates in correctness, only in avoiding
repeated plugin invocations.

# Core types

  - Manager: directory-backed cache, Get/Put plus hit/miss Stats.
  - Config: the directory root.
*/
package cache
