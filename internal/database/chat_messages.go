package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/activity-coach/internal/models"
	"github.com/google/uuid"
)

// ChatRepository handles the append-only conversation log
type ChatRepository struct {
	db *DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Append appends a message to the user's chat log
func (r *ChatRepository) Append(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, user_id, role, content, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING timestamp
	`

	err := r.db.QueryRowContext(ctx, query,
		msg.ID,
		msg.UserID,
		msg.Role,
		msg.Content,
		time.Now(),
	).Scan(&msg.Timestamp)

	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	return nil
}

// GetRecent retrieves the user's most recent messages, newest first.
// Callers that need chronological order reverse the slice.
func (r *ChatRepository) GetRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, user_id, role, content, timestamp
		FROM chat_messages
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		msg := &models.ChatMessage{}
		err := rows.Scan(
			&msg.ID,
			&msg.UserID,
			&msg.Role,
			&msg.Content,
			&msg.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat messages: %w", err)
	}

	return messages, nil
}
