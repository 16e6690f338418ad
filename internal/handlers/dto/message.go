package dto

import (
	"time"

	"github.com/samber/lo"
	"github.com/thereayou/pollchat/internal/chat"
)

// TimestampLayout renders message times as HH:MM:SS. It is ambiguous across
// midnight, which is accepted for a same-day chat.
const TimestampLayout = "15:04:05"

type PostMessageRequest struct {
	Content   string `json:"content" binding:"max=2000"`
	Formatted bool   `json:"formatted"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"max=2000"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type PostMessageResponse struct {
	Status string `json:"status"`
	ID     uint64 `json:"id"`
}

type MessageResponse struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Edited    bool   `json:"edited"`
	Formatted bool   `json:"formatted"`
}

type PollResponse struct {
	Messages    []MessageResponse `json:"messages"`
	ActiveUsers []string          `json:"active_users"`
	Typing      []string          `json:"typing"`
}

type TypingResponse struct {
	Typing []string `json:"typing"`
}

func NewMessageResponse(item chat.FeedItem, loc *time.Location) MessageResponse {
	return MessageResponse{
		ID:        uint64(item.ID),
		Username:  item.Username,
		Content:   item.Content,
		Timestamp: item.CreatedAt.In(loc).Format(TimestampLayout),
		Edited:    item.Edited(),
		Formatted: item.IsFormatted,
	}
}

func NewPollResponse(s chat.Snapshot, loc *time.Location) PollResponse {
	return PollResponse{
		Messages: lo.Map(s.Messages, func(item chat.FeedItem, _ int) MessageResponse {
			return NewMessageResponse(item, loc)
		}),
		ActiveUsers: nonNil(s.ActiveUsers),
		Typing:      nonNil(s.TypingUsers),
	}
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}

func NewTypingResponse(names []string) TypingResponse {
	return TypingResponse{Typing: nonNil(names)}
}
