package dal

import (
	"time"

	"github.com/Masterminds/squirrel"
)

var qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question) //nolint:gochecknoglobals // stateless builder

// LoadStateQuery builds a query to read one persisted value of a chat
func LoadStateQuery(chatID int64, key string) squirrel.Sqlizer {
	return qb.Select("value").
		From("app_state").
		Where(squirrel.Eq{"chat_id": chatID, "key": key})
}

// SaveStateQuery builds an upsert that replaces the whole value
func SaveStateQuery(chatID int64, key, value string, now time.Time) squirrel.Sqlizer {
	return qb.Insert("app_state").
		Columns("chat_id", "key", "value", "updated_at").
		Values(chatID, key, value, now.Unix()).
		Suffix("ON CONFLICT (chat_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at")
}

// ClearStateQuery builds a query to drop every persisted value of a chat
func ClearStateQuery(chatID int64) squirrel.Sqlizer {
	return qb.Delete("app_state").
		Where(squirrel.Eq{"chat_id": chatID})
}

// ChatIDsQuery builds a query listing chats that have any persisted state
func ChatIDsQuery() squirrel.Sqlizer {
	return qb.Select("DISTINCT chat_id").
		From("app_state").
		OrderBy("chat_id")
}

// InsertAuthConfirmationQuery builds a query to insert a new auth confirmation
func InsertAuthConfirmationQuery(chatID int64, token string, expiresAt time.Time) squirrel.Sqlizer {
	return qb.Insert("auth_confirmations").
		Columns("chat_id", "token", "expires_at").
		Values(chatID, token, expiresAt.Unix())
}

// IsConfirmedQuery builds a query to check if a not expired auth confirmation is confirmed
func IsConfirmedQuery(chatID int64, token string, now time.Time) squirrel.Sqlizer {
	return qb.Select("confirmed").
		From("auth_confirmations").
		Where(squirrel.Eq{"chat_id": chatID, "token": token}).
		Where(squirrel.Gt{"expires_at": now.Unix()})
}

// ConfirmAuthConfirmationQuery builds a query to confirm a not expired auth confirmation
func ConfirmAuthConfirmationQuery(chatID int64, token string, now time.Time) squirrel.Sqlizer {
	return qb.Update("auth_confirmations").
		Set("confirmed", true).
		Where(squirrel.Eq{"chat_id": chatID, "token": token}).
		Where(squirrel.Gt{"expires_at": now.Unix()})
}

// DeleteAuthConfirmationQuery builds a query to delete auth confirmation
func DeleteAuthConfirmationQuery(chatID int64, token string) squirrel.Sqlizer {
	return qb.Delete("auth_confirmations").
		Where(squirrel.Eq{"chat_id": chatID, "token": token})
}

// CleanupAuthConfirmationsQuery builds a query to cleanup expired auth confirmations
func CleanupAuthConfirmationsQuery(now time.Time) squirrel.Sqlizer {
	return qb.Delete("auth_confirmations").
		Where(squirrel.Lt{"expires_at": now.Unix()})
}
