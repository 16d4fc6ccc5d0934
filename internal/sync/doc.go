// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

/*
Package sync turns a declarative stream filter into datapoints on a fixed
interval.

Pipeline (one StreamPoller tick):

 1. PlanShards splits the configured filter into API-compliant shards
    (at most 100 user logins each). Planning happens once at startup.
 2. For each shard, sequentially, the Paginator drains GET /streams page by
    page, following cursors until the Done phase.
 3. Records are filtered by the minimum-viewer threshold. Helix returns
    streams by descending viewer count, so the first record below the
    threshold ends the shard (early stop).
 4. The CategoryResolver supplies each surviving record's category name
    from its per-loop cache, looking it up through GET /games on a miss.
 5. Assemble builds one datapoint per record, all sharing the tick
    timestamp, and the page's batch is submitted to the sink.

ChatPoller is a second, independent loop that counts replayed chat
comments per video. Each loop owns its caches; the two share only
immutable configuration.

Errors inside a tick never stop the loop: a failed page aborts its shard
for this tick, a failed lookup yields FallbackCategory, and a failed
submission is logged with its lost count.
*/
package sync
