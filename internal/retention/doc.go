// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

/*
Package retention implements the daily maintenance job over the event store.

A run has three stages, executed in order:

  - summarize: events older than the raw horizon are rolled up per
    (store, user, event type, month) into user_behavior_summary when a group
    holds more than the materiality threshold.
  - filter_aged: events older than the raw horizon are marked filtered with
    reason "aged".
  - filter_trash_chat: chat_initiated events shorter than the chat minimum are
    marked filtered with reason "trash_chat", unless the same shopper made a
    purchase within the follow-on window. Chats whose window has not elapsed
    yet are left for a later run.

Every stage lists the stores it has work for and processes them one at a
time. A failing store is logged and counted and the run moves on to the next
one. Each statement is idempotent, so a run interrupted by shutdown leaves the
store consistent and the next run picks up where it stopped.

The Scheduler runs the job once a day at retention.run_at (local time) and is
meant to be added to the supervisor tree.
*/
package retention
