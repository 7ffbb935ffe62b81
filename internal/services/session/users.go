// Package session registers users and tracks who is logged in.
package session

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/valutatrade/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLen = 3
	minPasswordLen = 4
)

// PortfolioOpener creates the wallet of a new user.
type PortfolioOpener interface {
	Open(userID int64) error
}

// Users registry of wallet owners backed by the users record.
type Users struct {
	mu     sync.Mutex
	store  domain.Gateway
	wallet PortfolioOpener
	logger *zap.Logger
	cost   int
	now    func() time.Time
}

// NewUsers creates a registry. wallet may be nil when portfolios are opened elsewhere.
func NewUsers(store domain.Gateway, wallet PortfolioOpener, logger *zap.Logger) (*Users, error) {
	if store == nil {
		return nil, errors.New("users registry requires a persistence gateway")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Users{
		store:  store,
		wallet: wallet,
		logger: logger,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}, nil
}

func validateCredentials(username, password string) error {
	if utf8.RuneCountInString(username) < minUsernameLen {
		return errors.Wrapf(domain.ErrInvalidCredentials, "username must be at least %d characters", minUsernameLen)
	}
	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return errors.Wrap(domain.ErrInvalidCredentials, "username may contain only letters, digits and underscores")
		}
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return errors.Wrapf(domain.ErrInvalidCredentials, "password must be at least %d characters", minPasswordLen)
	}
	return nil
}

func (u *Users) load() ([]domain.User, error) {
	payload, err := u.store.Load(domain.KindUsers)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load", Kind: domain.KindUsers, Err: err}
	}
	if payload == nil {
		return nil, nil
	}

	var users []domain.User
	if err := json.Unmarshal(payload, &users); err != nil {
		u.logger.Warn("users record is corrupt, starting empty", zap.Error(err))
		return nil, nil
	}
	return users, nil
}

func (u *Users) save(users []domain.User) error {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	payload, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return &domain.PersistenceError{Op: "encode", Kind: domain.KindUsers, Err: err}
	}
	if err := u.store.Save(domain.KindUsers, payload); err != nil {
		return &domain.PersistenceError{Op: "save", Kind: domain.KindUsers, Err: err}
	}
	return nil
}

// Register creates a user with the next free id and opens an empty portfolio.
func (u *Users) Register(username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return domain.User{}, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	users, err := u.load()
	if err != nil {
		return domain.User{}, err
	}

	var maxID int64
	for _, existing := range users {
		if strings.EqualFold(existing.Username, username) {
			return domain.User{}, errors.Wrapf(domain.ErrUserExists, "username %q", username)
		}
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return domain.User{}, errors.Wrap(err, "hash password")
	}

	user := domain.User{
		ID:               maxID + 1,
		Username:         username,
		HashedPassword:   string(hash),
		RegistrationDate: u.now().UTC(),
	}
	// an empty portfolio left by a failed save is harmless, a user without one is not
	if u.wallet != nil {
		if err := u.wallet.Open(user.ID); err != nil {
			return domain.User{}, errors.Wrapf(err, "open portfolio for user %d", user.ID)
		}
	}

	if err := u.save(append(users, user)); err != nil {
		return domain.User{}, err
	}

	u.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))

	return user, nil
}

// Authenticate checks the password of username.
func (u *Users) Authenticate(username, password string) (domain.User, error) {
	user, err := u.Find(username)
	if err != nil {
		return domain.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		u.logger.Info("authentication failed", zap.String("username", user.Username))
		return domain.User{}, errors.Wrapf(domain.ErrAuthentication, "user %q", user.Username)
	}

	return user, nil
}

// Find returns the user registered under username, case-insensitively.
func (u *Users) Find(username string) (domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	users, err := u.load()
	if err != nil {
		return domain.User{}, err
	}

	username = strings.TrimSpace(username)
	for _, user := range users {
		if strings.EqualFold(user.Username, username) {
			return user, nil
		}
	}

	return domain.User{}, errors.Wrapf(domain.ErrUserNotFound, "username %q", username)
}
