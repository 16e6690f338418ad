package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/pollchat/internal/chat"
	"github.com/thereayou/pollchat/internal/models"
	"github.com/thereayou/pollchat/internal/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (d *Database) Touch(ctx context.Context, userID uuid.UUID, now time.Time) error {
	return d.updateUser(ctx, "touch", userID, map[string]any{"last_seen_at": now.UTC()})
}

func (d *Database) SetTyping(ctx context.Context, userID uuid.UUID, now time.Time) error {
	return d.updateUser(ctx, "set typing", userID, map[string]any{"typing_at": now.UTC()})
}

func (d *Database) ClearPresence(ctx context.Context, userID uuid.UUID) error {
	return d.updateUser(ctx, "clear presence", userID, map[string]any{"last_seen_at": nil, "typing_at": nil})
}

func (d *Database) updateUser(ctx context.Context, op string, userID uuid.UUID, fields map[string]any) error {
	res := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return chat.NewStorageError(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return chat.ErrUserNotFound
	}
	return nil
}

func (d *Database) ActiveUsers(ctx context.Context, now time.Time) ([]string, error) {
	names := make([]string, 0)
	err := d.db.WithContext(ctx).Model(&models.User{}).
		Where("last_seen_at > ?", d.presence.ActiveCutoff(now).UTC()).
		Order("username").
		Pluck("username", &names).Error
	if err != nil {
		return nil, chat.NewStorageError("active users", err)
	}
	return names, nil
}

func (d *Database) TypingUsers(ctx context.Context, now time.Time, excluding uuid.UUID) ([]string, error) {
	names := make([]string, 0)
	err := d.db.WithContext(ctx).Model(&models.User{}).
		Where("typing_at > ? AND id <> ?", d.presence.TypingCutoff(now).UTC(), excluding).
		Order("username").
		Pluck("username", &names).Error
	if err != nil {
		return nil, chat.NewStorageError("typing users", err)
	}
	return names, nil
}

// EvictStale clears last_seen_at for rows outside the staleness window. The
// rows themselves are kept.
func (d *Database) EvictStale(ctx context.Context, now time.Time) (int, error) {
	res := d.db.WithContext(ctx).Model(&models.User{}).
		Where("last_seen_at <= ?", d.presence.ActiveCutoff(now).UTC()).
		Update("last_seen_at", nil)
	if res.Error != nil {
		return 0, chat.NewStorageError("evict stale", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (d *Database) EnsureUser(ctx context.Context, username string, now time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate := models.User{ID: uuid.New(), Username: username, CreatedAt: now.UTC()}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoNothing: true,
		}).Create(&candidate).Error
		if err != nil {
			return err
		}

		var user models.User
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			return err
		}
		if !user.Guest() {
			return chat.ErrUsernameTaken
		}
		if err := tx.Model(&user).Update("last_seen_at", now.UTC()).Error; err != nil {
			return err
		}
		id = user.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, chat.NewStorageError("ensure user", err)
	}
	return id, nil
}

func (d *Database) Usernames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var users []models.User
	if err := d.db.WithContext(ctx).Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, chat.NewStorageError("usernames", err)
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}

func (d *Database) CreateUser(ctx context.Context, username, email, passwordHash string) (uuid.UUID, error) {
	email = strings.ToLower(email)
	user := models.User{
		Username:     username,
		Email:        &email,
		PasswordHash: passwordHash,
	}

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return chat.ErrUsernameTaken
		}
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return services.ErrEmailTaken
		}

		err := tx.Create(&user).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return chat.ErrUsernameTaken
		}
		return err
	})
	if errors.Is(err, services.ErrEmailTaken) {
		return uuid.Nil, err
	}
	if err != nil {
		return uuid.Nil, chat.NewStorageError("create user", err)
	}
	return user.ID, nil
}

func (d *Database) FindCredentials(ctx context.Context, email string) (services.Credentials, error) {
	var user models.User
	err := d.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.Credentials{}, chat.ErrUserNotFound
	}
	if err != nil {
		return services.Credentials{}, chat.NewStorageError("find credentials", err)
	}
	return services.Credentials{UserID: user.ID, PasswordHash: user.PasswordHash}, nil
}
