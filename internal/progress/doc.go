// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries job lifecycle events from the orchestrator and runner
// to whoever is watching a batch, such as the terminal UI. Reporting never blocks
// a job: events that cannot be delivered are dropped.
package progress
