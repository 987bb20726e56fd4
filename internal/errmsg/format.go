// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import (
	"errors"
	"fmt"

	"github.com/llehouerou/streamwave/internal/stream"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Queue operations
	OpQueueLoad     Op = "load queue"
	OpQueueSave     Op = "save queue"
	OpQueueAdd      Op = "add to queue"
	OpQueueLoadMore Op = "load more tracks"
	OpRadioStart    Op = "start radio"

	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"
	OpStreamResolve Op = "resolve stream"
	OpDownload      Op = "download track"

	// Song state
	OpLikeToggle    Op = "update like"
	OpLibraryToggle Op = "update library"
	OpHistoryRecord Op = "record play"
	OpSettingsSave  Op = "save settings"

	// Presence
	OpPresenceUpdate Op = "update now playing"
	OpScrobble       Op = "scrobble"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Messages shown for stream resolution failures.
const (
	MsgNoConnectivity   = "No internet connection"
	MsgTimeout          = "Connection timed out"
	MsgNoPlayableStream = "No playable stream found"
	MsgUnknown          = "Unknown error"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// Describe returns the message shown to the user when playback of a track
// fails.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var re *stream.ResolutionError
	if !errors.As(err, &re) {
		return MsgUnknown
	}
	switch re.Kind {
	case stream.KindNoConnectivity:
		return MsgNoConnectivity
	case stream.KindTimeout:
		return MsgTimeout
	case stream.KindNoPlayableStream:
		return MsgNoPlayableStream
	case stream.KindNotPlayable:
		if re.Reason != "" {
			return re.Reason
		}
		return MsgNoPlayableStream
	case stream.KindRemote:
		if re.Code > 0 && re.Code != stream.CodeRemote {
			return fmt.Sprintf("Server error (%d)", re.Code)
		}
		return MsgUnknown
	default:
		return MsgUnknown
	}
}
