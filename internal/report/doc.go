// SPDX-License-Identifier: MPL-2.0

// Package report renders command results and batch summaries.
package report
