// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

/*
Package api serves the Corkboard HTTP surface with the chi router.

Every JSON response uses the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "card \"c9\" not found"}}

# Routes

All routes are mounted under /api/v1:

	GET    /health/live                      liveness
	GET    /health/ready                     readiness (store ping)
	GET    /boards                           list boards
	POST   /boards                           create board
	GET    /boards/{boardId}                 full board tree
	PATCH  /boards/{boardId}                 update title/description
	DELETE /boards/{boardId}                 delete with columns and cards
	GET    /boards/{boardId}/columns         list columns
	POST   /boards/{boardId}/columns         create column
	PATCH  /boards/{boardId}/columns/{columnId}
	DELETE /boards/{boardId}/columns/{columnId}
	GET    /boards/{boardId}/columns/{columnId}/cards
	POST   /boards/{boardId}/columns/{columnId}/cards
	PATCH  /boards/{boardId}/columns/{columnId}/cards/{cardId}
	DELETE /boards/{boardId}/columns/{columnId}/cards/{cardId}
	POST   /boards/{boardId}/columns/{columnId}/cards/{cardId}/move
	GET    /boards/{boardId}/export          JSON document, ?format=csv for CSV
	POST   /boards/{boardId}/export          trigger webhook delivery
	POST   /admin/repair                     rebuild child indexes
	GET    /ws                               websocket upgrade

/metrics is mounted at the root for Prometheus.

# Errors

Service errors map onto HTTP status codes in respondServiceError:

	board.ErrNotFound    404 NOT_FOUND
	board.ErrConflict    409 CONFLICT
	board.ErrValidation  400 VALIDATION_FAILED
	malformed JSON       400 BAD_REQUEST

Export delivery failures are not errors: POST /export answers 200 with
success=false in the result body.

# Rate Limiting

httprate limits by client IP. Writes and exports have their own, stricter
presets; see RateLimitWrite and RateLimitExport.
*/
package api
