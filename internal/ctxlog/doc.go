// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// Components never reach for a global logger. They call Logger(ctx) on the context
// they were handed, so a batch can scope every log line with its own attributes
// (see With) and tests can capture output by installing their own logger.
//
// The level is shared through LevelVar and initialised from GENTESTS_LOG_LEVEL.
package ctxlog
