// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs a batch of external processes, one per target, over a
// bounded worker pool and reports one Outcome per target.
//
// A Job describes a single invocation. The Runner launches it with stdout and
// stderr merged, enforces the job's deadline (timeout plus a grace margin) by
// killing the process group, and classifies the result as success, non-zero
// exit, timeout or launch failure. The Orchestrator builds the jobs for a
// BatchSpec, dispatches them and blocks until every job has an Outcome.
//
// Job failures are data in the Report, never errors.
package runbatch
