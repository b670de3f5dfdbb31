package models

import (
	"strings"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/pkg/validation"
)

// ChatMessage is one community chat line. Seq is a monotonically increasing
// cursor for polling. Deleted messages keep their place in the sequence with
// the content blanked; deletions of messages a poller has already seen are
// reported through ChatPage.Deleted.
type ChatMessage struct {
	Seq         int64      `json:"seq"`
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Content     string     `json:"content"`
	ReplyToID   *string    `json:"reply_to_id"`
	ClientNonce string     `json:"client_nonce,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at"`
	Author      *Author    `json:"author,omitempty"`
}

type SendChatMessageRequest struct {
	Content     string  `json:"content" validate:"required,min=1,max=2000"`
	ReplyToID   *string `json:"reply_to_id" validate:"omitempty,max=64"`
	ClientNonce string  `json:"client_nonce" validate:"max=64"`
}

func (r *SendChatMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	r.ReplyToID = emptyToNil(trimPtr(r.ReplyToID))
	return validation.Struct(r)
}

const (
	DefaultChatLimit = 50
	MaxChatLimit     = 100
	// MaxChatDeletions caps the deletion ids returned by one poll.
	MaxChatDeletions = 500
)

// ChatPollParams: After returns newer messages ascending; Before pages
// history backwards. With neither, the latest Limit messages are returned.
// DeletedAfter is the deletion cursor from the previous poll's DeletedSeq.
type ChatPollParams struct {
	After        int64
	Before       int64
	DeletedAfter int64
	Limit        int
}

func (p *ChatPollParams) Normalize() {
	if p.After < 0 {
		p.After = 0
	}
	if p.Before < 0 {
		p.Before = 0
	}
	if p.DeletedAfter < 0 {
		p.DeletedAfter = 0
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultChatLimit
	case p.Limit > MaxChatLimit:
		p.Limit = MaxChatLimit
	}
}

// ChatPage is the poll response. Messages are always ascending by Seq.
// Deleted lists ids removed since DeletedAfter on incremental polls, and
// DeletedSeq is the cursor to send back as deleted_after.
type ChatPage struct {
	Messages   []ChatMessage `json:"messages"`
	HasMore    bool          `json:"has_more"`
	LatestSeq  int64         `json:"latest_seq"`
	Deleted    []string      `json:"deleted"`
	DeletedSeq int64         `json:"deleted_seq"`
}

// Incremental reports whether the poll continues from earlier cursors.
func (p ChatPollParams) Incremental() bool {
	return p.After > 0 || p.DeletedAfter > 0
}
