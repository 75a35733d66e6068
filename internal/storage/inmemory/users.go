package inmemory

import (
	"context"
	"time"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
)

type UserTable struct {
	db *db
}

func copyUser(u *models.User) *models.User {
	out := *u
	if u.ConfirmationCode != nil {
		out.ConfirmationCode = append([]byte(nil), u.ConfirmationCode...)
	}
	if u.ConfirmedAt != nil {
		at := *u.ConfirmedAt
		out.ConfirmedAt = &at
	}
	return &out
}

func (t *UserTable) List(_ context.Context, search string, f filters.Filters) ([]models.User, int, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	users := make([]models.User, 0, len(t.db.users))
	for _, id := range sortedIDs(t.db.users) {
		u := t.db.users[id]
		if search != "" && !containsFold(u.Username, search) {
			continue
		}
		users = append(users, *copyUser(u))
	}
	out, total := page(users, f)
	return out, total, nil
}

func (t *UserTable) find(match func(*models.User) bool) (*models.User, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	for _, u := range t.db.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (t *UserTable) GetByID(_ context.Context, id int64) (*models.User, error) {
	return t.find(func(u *models.User) bool { return u.ID == id })
}

func (t *UserTable) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return t.find(func(u *models.User) bool { return u.Username == username })
}

func (t *UserTable) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return t.find(func(u *models.User) bool { return u.Email == email })
}

// uniqueness checks the username and email keys, ignoring the row selfID.
func (d *db) userUniqueness(username, email string, selfID int64) error {
	for id, u := range d.users {
		if id == selfID {
			continue
		}
		if u.Username == username {
			return conflict("users_username_key")
		}
		if u.Email == email {
			return conflict("users_email_key")
		}
	}
	return nil
}

func (t *UserTable) Insert(_ context.Context, user *models.User) (*models.User, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	if err := t.db.userUniqueness(user.Username, user.Email, 0); err != nil {
		return nil, err
	}
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}
	u := &models.User{
		ID:        t.db.next("users"),
		Username:  user.Username,
		Email:     user.Email,
		Role:      role,
		Bio:       user.Bio,
		CreatedAt: time.Now().UTC(),
	}
	t.db.users[u.ID] = u
	return copyUser(u), nil
}

func (t *UserTable) Update(_ context.Context, user *models.User) (*models.User, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	u, ok := t.db.users[user.ID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if err := t.db.userUniqueness(user.Username, user.Email, user.ID); err != nil {
		return nil, err
	}
	u.Username = user.Username
	u.Email = user.Email
	u.Role = user.Role
	u.Bio = user.Bio
	return copyUser(u), nil
}

func (t *UserTable) Delete(_ context.Context, username string) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	for id, u := range t.db.users {
		if u.Username == username {
			t.db.deleteUser(id)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (t *UserTable) SetConfirmationCode(_ context.Context, userID int64, codeHash []byte) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	u, ok := t.db.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	u.ConfirmationCode = append([]byte(nil), codeHash...)
	return nil
}

func (t *UserTable) MarkConfirmed(_ context.Context, userID int64, at time.Time) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	if u, ok := t.db.users[userID]; ok && u.ConfirmedAt == nil {
		u.ConfirmedAt = &at
	}
	return nil
}
