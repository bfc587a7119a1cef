package services

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

type UserStore interface {
	FindUserByUsername(username string) (*User, error)
	GetUser(id int64) (*User, error)
	ListUsers() ([]*User, error)
	InsertUser(u *User) (*User, error)
	UpdateUser(u *User) error
	DeleteUser(id int64) error
	CountAdmins() (int, error)
}

type SignUp struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserPatch carries a partial update. Nil fields are left untouched.
type UserPatch struct {
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	IsAdmin   *bool   `json:"is_admin"`
}

type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

func (s *UserService) Create(in SignUp) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, NewInvalidError("username/password required")
	}
	if len(in.Password) < minPasswordLen {
		return nil, NewInvalidError("password too short")
	}
	existing, err := s.store.FindUserByUsername(in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("user with the provided username already exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.store.InsertUser(&User{
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	})
}

func (s *UserService) Get(id int64) (*User, error) {
	u, err := s.store.GetUser(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewNotFoundError("no user found")
	}
	return u, nil
}

func (s *UserService) GetByUsername(username string) (*User, error) {
	u, err := s.store.FindUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewNotFoundError("no user found")
	}
	return u, nil
}

func (s *UserService) List() ([]*User, error) {
	return s.store.ListUsers()
}

// Update applies a partial edit. The password may only be changed by the
// target user themselves and must meet the minimum length; a username
// change is checked for collision; clearing the admin flag is refused when
// the target is the last remaining administrator, so admins can never lock
// themselves out entirely. All checks run before anything is written, so a
// failed update never persists partial fields.
func (s *UserService) Update(id, actorID int64, patch UserPatch) (*User, error) {
	u, err := s.store.GetUser(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewInvalidError("user does not exist")
	}

	if patch.Password != nil {
		if actorID != id {
			return nil, NewInvalidError("cannot change password of another user")
		}
		if len(*patch.Password) < minPasswordLen {
			return nil, NewInvalidError("password too short")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	if patch.Username != nil {
		name := strings.TrimSpace(*patch.Username)
		if name == "" {
			return nil, NewInvalidError("username must not be empty")
		}
		check, err := s.store.FindUserByUsername(name)
		if err != nil {
			return nil, err
		}
		if check != nil && check.ID != id {
			return nil, NewConflictError("user with this username already exists")
		}
		u.Username = name
	}

	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}

	if patch.IsAdmin != nil {
		if u.IsAdmin && !*patch.IsAdmin {
			admins, err := s.store.CountAdmins()
			if err != nil {
				return nil, err
			}
			if admins <= 1 {
				return nil, NewInvalidError("cannot demote the last administrator")
			}
		}
		u.IsAdmin = *patch.IsAdmin
	}

	if err := s.store.UpdateUser(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Delete(id int64) error {
	u, err := s.store.GetUser(id)
	if err != nil {
		return err
	}
	if u == nil {
		return NewInvalidError("user does not exist")
	}
	return s.store.DeleteUser(id)
}
