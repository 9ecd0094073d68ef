package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"language_exchange_service/internal/member/domain"
	errprocess "language_exchange_service/pkg/err"
)

const memberSchema = `CREATE TABLE IF NOT EXISTS member (
	id         BIGSERIAL PRIMARY KEY,
	member_id  VARCHAR(36)  NOT NULL UNIQUE,
	email      VARCHAR(255) NOT NULL UNIQUE,
	password   VARCHAR(255) NOT NULL,
	status     SMALLINT     NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
)`

// pg unique_violation
const uniqueViolation = "23505"

// MemberRepository definition get Member info
type MemberRepository interface {
	EnsureSchema(ctx context.Context) error
	CreateUser(ctx context.Context, user *domain.Member) error
	UpdateMemberStatus(ctx context.Context, user *domain.Member) error
	FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error)
}

type memberRepository struct {
	db *pgxpool.Pool
}

// NewMemberRepository create a MemberRepository
func NewMemberRepository(db *pgxpool.Pool) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, memberSchema); err != nil {
		return errprocess.Storage("create member table", err)
	}
	return nil
}

func (r *memberRepository) CreateUser(ctx context.Context, member *domain.Member) error {
	err := r.db.QueryRow(ctx,
		"INSERT INTO member(member_id, email, password, status) VALUES ($1, $2, $3, $4) RETURNING id",
		member.MemberID, member.Email, member.Password, member.Status,
	).Scan(&member.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errprocess.Conflict("email already exists")
		}
		return errprocess.Storage("insert member", err)
	}
	return nil
}

func (r *memberRepository) UpdateMemberStatus(ctx context.Context, member *domain.Member) error {
	tag, err := r.db.Exec(ctx, "UPDATE member SET status = $1 WHERE member_id = $2", member.Status, member.MemberID)
	if err != nil {
		return errprocess.Storage("update member status", err)
	}
	if tag.RowsAffected() == 0 {
		return errprocess.NotFound("member not found")
	}
	return nil
}

func (r *memberRepository) FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error) {
	queryStr := "SELECT id, member_id, email, password, status FROM member WHERE 1=1"
	params := []interface{}{}
	paramCount := 1

	if memberQuery.Email != nil {
		queryStr += fmt.Sprintf(" AND email = $%d", paramCount)
		params = append(params, *memberQuery.Email)
		paramCount++
	}
	if memberQuery.MemberID != nil {
		queryStr += fmt.Sprintf(" AND member_id = $%d", paramCount)
		params = append(params, *memberQuery.MemberID)
		paramCount++
	}
	if memberQuery.ID != nil {
		queryStr += fmt.Sprintf(" AND id = $%d", paramCount)
		params = append(params, *memberQuery.ID)
		paramCount++
	}
	if paramCount == 1 {
		return nil, errprocess.Validation("member query needs at least one condition")
	}

	row := r.db.QueryRow(ctx, queryStr, params...)
	var member domain.Member
	err := row.Scan(&member.ID, &member.MemberID, &member.Email, &member.Password, &member.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errprocess.NotFound("no member found with given criteria")
		}
		return nil, errprocess.Storage("find member", err)
	}

	return &member, nil
}
