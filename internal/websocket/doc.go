// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

/*
Package websocket delivers board events to the clients viewing that board.

Every connection may be a member of at most one board room. Clients join a
room with joinBoard and leave it with leaveBoard; joining a second board
leaves the first. Events published for a board reach that board's room and
nothing else.

Key Components:

  - Hub: owns the room registry and fans envelopes out to room members
  - Client: one websocket connection with read and write goroutines
  - Options: send buffer depth and inbound rate limits

Architecture:

	 event forwarder
	       │ PublishToRoom (FIFO)
	┌──────▼──────┐
	│     Hub     │  rooms: boardID → clients
	└──┬───────┬──┘
	   │       │
	┌──▼──┐ ┌──▼──┐
	│alpha│ │beta │
	│ c1  │ │ c2  │
	│ c3  │ └─────┘
	└─────┘

Protocol:

Client to server:

	{"type":"joinBoard","data":{"boardId":"b1"}}
	{"type":"leaveBoard","data":{"boardId":"b1"}}
	{"type":"ping"}

Server to room members, one frame per event:

	{"id":"...","type":"cardMoved","boardId":"b1","entityId":"c1",
	 "data":{"card":{...},"sourceColumnId":"...","destinationColumnId":"..."},
	 "timestamp":"..."}

userJoined is sent to the other members of the room being joined. userLeft
is sent to the remaining members when a client leaves, switches board, or
disconnects.

Delivery:

Delivery is best-effort and at most once. A client whose send buffer is full
is disconnected rather than allowed to stall the room; it must re-read the
board after reconnecting since nothing is replayed. Inbound messages are
limited per connection with golang.org/x/time/rate.

Thread Safety:

Room membership is changed only on the hub goroutine. RoomCount, RoomSize
and ClientCount may be called from any goroutine.
*/
package websocket
