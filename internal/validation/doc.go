// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

// Package validation checks HTTP request bodies with go-playground/validator.
//
// A single validator instance is shared process-wide; it caches struct
// metadata, so building one per request would be wasteful. Errors are
// reported per field using the field's JSON key:
//
//	var req models.CreateCardRequest
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // 400 VALIDATION_FAILED, details.fields = [{field, tag, message}, ...]
//	}
//
// Besides the built-in tags the validator registers notblank, which
// rejects strings made only of whitespace.
package validation
