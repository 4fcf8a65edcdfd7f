// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps strings in ANSI SGR sequences for the report and log output.
// Output is plain when NO_COLOR is set or stdout is not a terminal, unless FORCE_COLOR is set.
package color
