package services

import (
	"context"
	"errors"
	"fmt"
	"lawjournal/internal/logger"
	"lawjournal/internal/models"
	"lawjournal/internal/utils"
	"strings"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegisterInput is the admin registration form.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Confirm  string
}

type UserService struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, log: logger.For("users")}
}

func usernameTaken(name string) *kerrors.Error {
	return kerrors.Conflict(ReasonUsernameTaken, fmt.Sprintf("username %q is already taken", name))
}

func emailTaken(email string) *kerrors.Error {
	return kerrors.Conflict(ReasonEmailTaken, fmt.Sprintf("email %q is already registered", email))
}

// CreateUser inserts an account. Duplicate usernames or emails are rejected
// and the store is left untouched.
func (s *UserService) CreateUser(ctx context.Context, username, email, passwordHash string, isAdmin bool) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if missing := required([2]string{"username", username}, [2]string{"email", email}, [2]string{"password", passwordHash}); len(missing) > 0 {
		return nil, validationError("missing required fields: %s", strings.Join(missing, ", "))
	}
	if n := len([]rune(username)); n < 3 || n > maxUsernameLen {
		return nil, validationError("username must be between 3 and %d characters", maxUsernameLen)
	}
	if err := checkLines(lineField{"username", username, maxUsernameLen}, lineField{"email", email, maxUserEmail}); err != nil {
		return nil, err
	}
	if !validEmail(email) {
		return nil, validationError("invalid email address")
	}

	user := models.User{Username: username, Email: email, Password: passwordHash, IsAdmin: isAdmin}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if count > 0 {
			return usernameTaken(username)
		}
		if err := tx.Model(&models.User{}).Where("LOWER(email) = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if count > 0 {
			return emailTaken(email)
		}
		if err := tx.Create(&user).Error; err != nil {
			// the unique indexes still catch a concurrent registration
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return usernameTaken(username)
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("user %s created (admin=%v)", user.Username, user.IsAdmin)
	return &user, nil
}

func (s *UserService) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kerrors.NotFound(ReasonUserNotFound, fmt.Sprintf("user %q not found", username))
		}
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return &user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kerrors.NotFound(ReasonUserNotFound, fmt.Sprintf("user %d not found", id))
		}
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// RegistrationOpen reports whether actor may create an admin account: anyone
// while there are no users yet, afterwards only existing admins.
func (s *UserService) RegistrationOpen(ctx context.Context, actor Actor) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	n, err := s.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// RegisterAdmin validates the form, hashes the password and creates an admin.
func (s *UserService) RegisterAdmin(ctx context.Context, actor Actor, in RegisterInput) (*models.User, error) {
	open, err := s.RegistrationOpen(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, adminRequired()
	}
	if len(in.Password) < 6 {
		return nil, validationError("password must be at least 6 characters")
	}
	// bcrypt only reads the first 72 bytes and refuses longer input
	if len(in.Password) > 72 {
		return nil, validationError("password must be at most 72 bytes")
	}
	if in.Password != in.Confirm {
		return nil, validationError("passwords do not match")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.CreateUser(ctx, in.Username, in.Email, hash, true)
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords give the same error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.FindUserByUsername(ctx, username)
	if err != nil {
		if IsNotFound(err) {
			return nil, badCredentials()
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, badCredentials()
	}
	return user, nil
}

func badCredentials() *kerrors.Error {
	return kerrors.Unauthorized(ReasonBadCredentials, "invalid username or password")
}
