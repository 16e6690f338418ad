package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/thereayou/pollchat/internal/chat"
	"github.com/thereayou/pollchat/internal/models"
	"gorm.io/gorm"
)

func (d *Database) Append(ctx context.Context, authorID uuid.UUID, content string, formatted bool, now time.Time) (chat.MessageID, error) {
	content, err := chat.NormalizeContent(content)
	if err != nil {
		return 0, err
	}

	message := models.Message{
		UserID:      authorID,
		Content:     content,
		IsFormatted: formatted,
		CreatedAt:   now.UTC(),
	}
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockMessages(tx); err != nil {
			return err
		}

		// Keep timestamp order in step with id order when callers race.
		var last models.Message
		if err := tx.Select("id", "created_at").Order("id DESC").Limit(1).Find(&last).Error; err != nil {
			return err
		}
		if last.ID != 0 && message.CreatedAt.Before(last.CreatedAt) {
			message.CreatedAt = last.CreatedAt.UTC()
		}

		return tx.Omit("User").Create(&message).Error
	})
	if err != nil {
		return 0, chat.NewStorageError("append message", err)
	}
	return chat.MessageID(message.ID), nil
}

func (d *Database) Edit(ctx context.Context, id chat.MessageID, authorID uuid.UUID, content string, now time.Time) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := authorize(tx, id, authorID); err != nil {
			return err
		}
		content, err := chat.NormalizeContent(content)
		if err != nil {
			return err
		}

		res := tx.Model(&models.Message{}).
			Where("id = ? AND user_id = ?", uint64(id), authorID).
			Updates(map[string]any{"content": content, "edited_at": now.UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return chat.ErrMessageNotFound
		}
		return nil
	})
	return chat.NewStorageError("edit message", err)
}

func (d *Database) Delete(ctx context.Context, id chat.MessageID, authorID uuid.UUID) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := authorize(tx, id, authorID); err != nil {
			return err
		}

		res := tx.Where("id = ? AND user_id = ?", uint64(id), authorID).Delete(&models.Message{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return chat.ErrMessageNotFound
		}
		return nil
	})
	return chat.NewStorageError("delete message", err)
}

// Recent reads the newest messages first so the limit bounds the window,
// then reverses them so the oldest comes first.
func (d *Database) Recent(ctx context.Context, limit int) ([]chat.Message, error) {
	var messages []models.Message
	err := d.db.WithContext(ctx).
		Order("id DESC").
		Limit(chat.ClampLimit(limit)).
		Find(&messages).Error
	if err != nil {
		return nil, chat.NewStorageError("recent messages", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return lo.Map(messages, func(m models.Message, _ int) chat.Message {
		return toChatMessage(m)
	}), nil
}

// lockMessages serializes appenders on postgres. SQLite runs on a single
// connection, so writers are already serialized there.
func lockMessages(tx *gorm.DB) error {
	if tx.Dialector.Name() != DriverPostgres {
		return nil
	}
	return tx.Exec("LOCK TABLE messages IN EXCLUSIVE MODE").Error
}

func authorize(tx *gorm.DB, id chat.MessageID, authorID uuid.UUID) error {
	var message models.Message
	err := tx.Select("id", "user_id").First(&message, "id = ?", uint64(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return chat.ErrMessageNotFound
	}
	if err != nil {
		return err
	}
	if message.UserID != authorID {
		return chat.ErrForbidden
	}
	return nil
}

func toChatMessage(m models.Message) chat.Message {
	var editedAt *time.Time
	if m.EditedAt != nil {
		editedAt = lo.ToPtr(m.EditedAt.UTC())
	}
	return chat.Message{
		ID:          chat.MessageID(m.ID),
		AuthorID:    m.UserID,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt.UTC(),
		EditedAt:    editedAt,
		IsFormatted: m.IsFormatted,
	}
}
