// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package doctor provides the check/fix workflow behind "facekiosk
// doctor": a series of health checks reported as a consistent
// checklist, with fixable failures carrying fix closures that run in
// --fix mode.
//
// The package provides:
//
//   - [Result] type with status, message, and optional fix action
//   - Constructors: [Pass], [Fail], [FailWithFix], [Warn], [Skip]
//   - [ExecuteFixes] for running fix closures
//   - [PrintChecklist] for human-readable output
//   - [BuildJSON] for machine-readable output
//
// Domain-specific checks (what to check, how to fix) live in the
// doctor command's package. This package provides only the workflow
// infrastructure.
package doctor
