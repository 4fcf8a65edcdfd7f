// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package discovery finds the concrete classes of a Java package in compiled
// class directories and jar archives.
//
// Class files are identified by reading their header and constant pool, not by
// file name, so nested classes get their binary name (com.example.Outer$Inner)
// and interfaces, annotations and synthetic or anonymous classes can be left out.
package discovery
