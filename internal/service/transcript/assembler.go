// Package transcript renders stored interview messages into the plain-text
// block fed to the analysis model.
package transcript

import (
	"fmt"
	"strings"

	"github.com/mockview/backend/internal/model/interview"
)

const timeLayout = "2006-01-02 15:04:05"

// Render produces the deterministic transcript for the given messages,
// which must already be in insertion order. Each message becomes
//
//	[<timestamp>] <ROLE>: <body>
//
// followed by an indented emotion line when the message carries a non-empty
// emotion context.
//
// window bounds prompt growth: only the newest window messages are
// rendered, with an elision marker when older ones are dropped. A window
// of zero or less renders everything.
func Render(msgs []interview.Message, window int) string {
	var b strings.Builder

	if window > 0 && len(msgs) > window {
		fmt.Fprintf(&b, "[... %d earlier messages omitted ...]\n", len(msgs)-window)
		msgs = msgs[len(msgs)-window:]
	}

	for _, msg := range msgs {
		fmt.Fprintf(&b, "[%s] %s: %s\n",
			msg.Timestamp.UTC().Format(timeLayout),
			strings.ToUpper(msg.Role),
			msg.Body,
		)
		if msg.HasEmotionContext() {
			fmt.Fprintf(&b, "  [EMOTION]: %s\n", msg.EmotionContext)
		}
	}

	return b.String()
}
