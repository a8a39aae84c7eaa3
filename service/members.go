package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/satheeshds/invoicing/auth"
	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/models"
)

// MemberStore is the persistence contract required by the member service.
type MemberStore interface {
	ListMembers(ctx context.Context) ([]models.Member, error)
	GetMember(ctx context.Context, id int64) (models.Member, error)
	CreateMember(ctx context.Context, m models.Member) (models.Member, error)
	UpdateMember(ctx context.Context, m models.Member) (models.Member, error)
	DeleteMember(ctx context.Context, id int64) error
	CountMembers(ctx context.Context) (int, error)
}

// MemberService manages the members allowed to use the application.
type MemberService struct {
	store MemberStore
	log   zerolog.Logger
}

// NewMemberService constructs a MemberService.
func NewMemberService(store MemberStore, log zerolog.Logger) *MemberService {
	return &MemberService{store: store, log: log}
}

// List returns every member.
func (s *MemberService) List(ctx context.Context) ([]models.Member, error) {
	return s.store.ListMembers(ctx)
}

// Get returns one member.
func (s *MemberService) Get(ctx context.Context, id int64) (models.Member, error) {
	return s.store.GetMember(ctx, id)
}

// Create adds a member. A password is required.
func (s *MemberService) Create(ctx context.Context, in models.MemberInput) (models.Member, error) {
	if msg := in.Validate(); msg != "" {
		return models.Member{}, billing.NewValidationError("", msg)
	}
	if in.Password == "" {
		return models.Member{}, billing.NewValidationError("password", "is required")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.Member{}, err
	}

	created, err := s.store.CreateMember(ctx, memberFromInput(in, hash))
	if err != nil {
		return models.Member{}, err
	}
	s.log.Info().Int64("member_id", created.ID).Str("role", created.Role).Msg("member created")
	return created, nil
}

// Update replaces a member's profile. An empty password keeps the current one.
func (s *MemberService) Update(ctx context.Context, id int64, in models.MemberInput) (models.Member, error) {
	if msg := in.Validate(); msg != "" {
		return models.Member{}, billing.NewValidationError("", msg)
	}
	var hash string
	if in.Password != "" {
		var err error
		if hash, err = auth.HashPassword(in.Password); err != nil {
			return models.Member{}, err
		}
	}

	m := memberFromInput(in, hash)
	m.ID = id
	updated, err := s.store.UpdateMember(ctx, m)
	if err != nil {
		return models.Member{}, err
	}
	s.log.Info().Int64("member_id", id).Msg("member updated")
	return updated, nil
}

// Delete removes a member.
func (s *MemberService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteMember(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("member_id", id).Msg("member deleted")
	return nil
}

func memberFromInput(in models.MemberInput, hash string) models.Member {
	return models.Member{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		Role:         in.Role,
		Status:       in.Status,
		PasswordHash: hash,
	}
}
