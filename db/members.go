package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/models"
)

const memberSelectQuery = `SELECT id, name, username, email, phone, role, status, password_hash, created_at, updated_at FROM members`

func scanMember(scanner interface{ Scan(...any) error }) (models.Member, error) {
	var m models.Member
	err := scanner.Scan(&m.ID, &m.Name, &m.Username, &m.Email, &m.Phone, &m.Role, &m.Status,
		&m.PasswordHash, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (s *Store) queryMember(ctx context.Context, op, where string, arg any) (models.Member, error) {
	m, err := scanMember(s.pool.QueryRow(ctx, memberSelectQuery+" WHERE "+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return m, billing.ErrNotFound
	}
	return m, billing.WrapTransportError(op, err)
}

// ListMembers returns every member ordered by name.
func (s *Store) ListMembers(ctx context.Context) ([]models.Member, error) {
	rows, err := s.pool.Query(ctx, memberSelectQuery+" ORDER BY name")
	if err != nil {
		return nil, billing.WrapTransportError("list members", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, billing.WrapTransportError("list members", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, billing.WrapTransportError("list members", err)
	}
	return members, nil
}

// GetMember returns the member with the given id.
func (s *Store) GetMember(ctx context.Context, id int64) (models.Member, error) {
	return s.queryMember(ctx, "get member", "id = $1", id)
}

// MemberByUsername looks a member up by login name, case-insensitively.
func (s *Store) MemberByUsername(ctx context.Context, username string) (models.Member, error) {
	return s.queryMember(ctx, "find member", "lower(username) = lower($1)", username)
}

// CreateMember inserts m. A taken username fails with *billing.ConflictError.
func (s *Store) CreateMember(ctx context.Context, m models.Member) (models.Member, error) {
	created, err := scanMember(s.pool.QueryRow(ctx, `INSERT INTO members (name, username, email, phone, role, status, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, username, email, phone, role, status, password_hash, created_at, updated_at`,
		m.Name, m.Username, m.Email, m.Phone, m.Role, m.Status, m.PasswordHash))
	if isUniqueViolation(err) {
		return models.Member{}, &billing.ConflictError{Field: "username", Value: m.Username}
	}
	if err != nil {
		return models.Member{}, billing.WrapTransportError("create member", err)
	}
	return created, nil
}

// UpdateMember overwrites the profile of m. An empty PasswordHash keeps the stored one.
func (s *Store) UpdateMember(ctx context.Context, m models.Member) (models.Member, error) {
	updated, err := scanMember(s.pool.QueryRow(ctx, `UPDATE members SET name = $2, username = $3, email = $4,
		phone = $5, role = $6, status = $7, password_hash = COALESCE(NULLIF($8, ''), password_hash),
		updated_at = now()
		WHERE id = $1
		RETURNING id, name, username, email, phone, role, status, password_hash, created_at, updated_at`,
		m.ID, m.Name, m.Username, m.Email, m.Phone, m.Role, m.Status, m.PasswordHash))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return models.Member{}, billing.ErrNotFound
	case isUniqueViolation(err):
		return models.Member{}, &billing.ConflictError{Field: "username", Value: m.Username}
	case err != nil:
		return models.Member{}, billing.WrapTransportError("update member", err)
	}
	return updated, nil
}

// DeleteMember removes a member.
func (s *Store) DeleteMember(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM members WHERE id = $1", id)
	if err != nil {
		return billing.WrapTransportError("delete member", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return nil
}

// CountMembers returns how many members exist.
func (s *Store) CountMembers(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, "SELECT count(*) FROM members").Scan(&n)
	return n, billing.WrapTransportError("count members", err)
}
