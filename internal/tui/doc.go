// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a live terminal view of a test generation batch. It lists
// every class with a status indicator, its elapsed time and the last line Randoop
// printed, and shows the batch summary once every job has finished.
//
// The view is driven by progress events, so it has no knowledge of how jobs run.
package tui
