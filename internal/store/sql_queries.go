package store

import (
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mars-alien/NoteTakingApp/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var remoteNoteColumns = []string{
	"id",
	"owner_id",
	"client_token",
	"title",
	"content",
	"last_modified",
	"updated_at",
	"deleted",
}

// serverClock is evaluated per statement so concurrent writers get distinct,
// commit-ordered change timestamps.
var serverClock = sq.Expr("clock_timestamp()")

func buildGetRemoteNoteQuery(id string) (string, []any, error) {
	query, args, err := psql.
		Select(remoteNoteColumns...).
		From("notes").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildFindByClientTokenQuery(ownerID, clientToken string) (string, []any, error) {
	query, args, err := psql.
		Select(remoteNoteColumns...).
		From("notes").
		Where(sq.Eq{"owner_id": ownerID, "client_token": clientToken}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildInsertRemoteNoteQuery(note models.RemoteNote) (string, []any, error) {
	query, args, err := psql.
		Insert("notes").
		Columns(remoteNoteColumns...).
		Values(
			note.ID,
			note.OwnerID,
			note.ClientToken,
			note.Title,
			note.Content,
			note.LastModified,
			serverClock,
			note.Deleted,
		).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildUpdateRemoteNoteQuery(note models.RemoteNote) (string, []any, error) {
	query, args, err := psql.
		Update("notes").
		Set("title", note.Title).
		Set("content", note.Content).
		Set("last_modified", note.LastModified).
		Set("deleted", note.Deleted).
		Set("updated_at", serverClock).
		Where(sq.Eq{"id": note.ID, "owner_id": note.OwnerID}).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildChangedSinceQuery(ownerID string, since time.Time) (string, []any, error) {
	query, args, err := psql.
		Select(remoteNoteColumns...).
		From("notes").
		Where(sq.Eq{"owner_id": ownerID}).
		Where(sq.GtOrEq{"updated_at": since}).
		OrderBy("updated_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildCreateUserQuery(user models.User) (string, []any, error) {
	query, args, err := psql.
		Insert("users").
		Columns("user_id", "login", "password_hash").
		Values(user.UserID, user.Login, user.PasswordHash).
		Suffix("RETURNING user_id, login, password_hash, created_at").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildFindUserByLoginQuery(login string) (string, []any, error) {
	query, args, err := psql.
		Select("user_id", "login", "password_hash", "created_at").
		From("users").
		Where(sq.Eq{"login": login}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func joinColumns() string {
	return strings.Join(remoteNoteColumns, ", ")
}
