package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/annotation-tracker/internal/ident"
	"github.com/iliyamo/annotation-tracker/internal/model"
	"github.com/iliyamo/annotation-tracker/internal/repository"
	"github.com/iliyamo/annotation-tracker/internal/utils"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong
// password. Both cases look the same to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AccountStore persists annotator accounts.
// *repository.UserRepo satisfies it.
type AccountStore interface {
	Create(ctx context.Context, u *model.Annotator) error
	Exists(ctx context.Context, id int64) (bool, error)
	GetByEmail(ctx context.Context, email string) (model.Annotator, error)
	GetByID(ctx context.Context, id int64) (model.Annotator, error)
	List(ctx context.Context) ([]model.Annotator, error)
	UpdatePassword(ctx context.Context, id int64, hash string, at time.Time) error
	UpdateRole(ctx context.Context, id int64, role string, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// TokenSettings controls access token issuing.
type TokenSettings struct {
	Secret     string
	TTLMinutes int
	BcryptCost int
}

// Registration is the input of Register. Self-registered accounts are
// always annotators; see Accounts.WithAdmins.
type Registration struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is an authenticated account and its access token.
type Session struct {
	User    model.Annotator `json:"user"`
	Token   string          `json:"token"`
	Expires time.Time       `json:"expires"`
}

// Accounts registers and authenticates annotators.
type Accounts struct {
	store  AccountStore
	ids    *ident.Generator
	tok    TokenSettings
	admins map[string]bool
	now    func() time.Time
}

func NewAccounts(store AccountStore, ids *ident.Generator, tok TokenSettings) *Accounts {
	return &Accounts{store: store, ids: ids, tok: tok, admins: map[string]bool{}, now: func() time.Time { return time.Now().UTC() }}
}

// WithAdmins lists the emails that are granted the admin role when they
// register. Everyone else registers as an annotator and can only be
// promoted through SetRole.
func (a *Accounts) WithAdmins(emails []string) *Accounts {
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			a.admins[e] = true
		}
	}
	return a
}

// Register creates an account with a freshly drawn identifier and
// signs a token for it.
func (a *Accounts) Register(ctx context.Context, in Registration) (Session, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || in.Password == "" {
		return Session{}, fmt.Errorf("register: name, email and password are required: %w", repository.ErrInvalidArgument)
	}
	hash, err := utils.HashPassword(in.Password, a.tok.BcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("register: hash password: %w", err)
	}

	role := model.RoleAnnotator
	if a.admins[email] {
		role = model.RoleAdmin
	}
	now := a.now()
	u := model.Annotator{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err = a.ids.Allocate(ctx, ident.KindAnnotator, a.store.Exists, func(ctx context.Context, id int64) error {
		u.ID = id
		return a.store.Create(ctx, &u)
	})
	if err != nil {
		return Session{}, fmt.Errorf("register %s: %w", email, err)
	}
	return a.session(u)
}

// Authenticate checks credentials and signs a token.
func (a *Accounts) Authenticate(ctx context.Context, email, password string) (Session, error) {
	u, err := a.store.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return a.session(u)
}

// ChangePassword replaces the password after verifying the current one.
func (a *Accounts) ChangePassword(ctx context.Context, id int64, current, next string) error {
	if next == "" {
		return fmt.Errorf("change password: new password required: %w", repository.ErrInvalidArgument)
	}
	u, err := a.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	hash, err := utils.HashPassword(next, a.tok.BcryptCost)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := a.store.UpdatePassword(ctx, id, hash, a.now()); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// SetRole changes an account's role and returns the updated account.
func (a *Accounts) SetRole(ctx context.Context, id int64, role string) (model.Annotator, error) {
	switch role {
	case model.RoleAdmin, model.RoleAnnotator:
	default:
		return model.Annotator{}, fmt.Errorf("set role: unknown role %q: %w", role, repository.ErrInvalidArgument)
	}
	if err := a.store.UpdateRole(ctx, id, role, a.now()); err != nil {
		return model.Annotator{}, fmt.Errorf("set role: %w", err)
	}
	u, err := a.store.GetByID(ctx, id)
	if err != nil {
		return model.Annotator{}, fmt.Errorf("set role: %w", err)
	}
	return u, nil
}

// Remove deletes an account. The annotator's records are kept.
func (a *Accounts) Remove(ctx context.Context, id int64) (model.Annotator, error) {
	u, err := a.store.GetByID(ctx, id)
	if err != nil {
		return model.Annotator{}, fmt.Errorf("remove annotator %d: %w", id, err)
	}
	if err := a.store.Delete(ctx, id); err != nil {
		return model.Annotator{}, fmt.Errorf("remove annotator %d: %w", id, err)
	}
	return u, nil
}

// List returns every account.
func (a *Accounts) List(ctx context.Context) ([]model.Annotator, error) {
	out, err := a.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list annotators: %w", err)
	}
	return out, nil
}

func (a *Accounts) session(u model.Annotator) (Session, error) {
	access, err := utils.NewAccessToken(a.tok.Secret, utils.Identity{AnnotatorID: u.ID, Email: u.Email, Role: u.Role}, a.tok.TTLMinutes)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{User: u, Token: access.Token, Expires: access.Exp}, nil
}
