package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tastebook/backend/internal/models"
)

// AuthInfo is a caller's claimed identity plus credential, as carried by
// every state-mutating request.
type AuthInfo struct {
	AuthorID   int64  `json:"author_id"`
	Credential string `json:"credential"`
}

// AuthService validates identities against the user table and handles
// registration and login. It gates every mutating operation and never
// mutates state itself (registration excepted, which creates the identity).
type AuthService struct {
	db        *gorm.DB
	jwtSecret string
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{db: db, jwtSecret: jwtSecret}
}

// Authenticate resolves auth to an active user id. It fails with
// ErrForbidden when the id is unknown, the account is soft-deleted, or the
// credential does not match.
func (s *AuthService) Authenticate(auth *AuthInfo) (int64, error) {
	if auth == nil || auth.AuthorID <= 0 || auth.Credential == "" {
		return 0, fmt.Errorf("%w: missing auth", ErrForbidden)
	}

	var user models.User
	if err := s.db.Select("id", "credential", "is_deleted").First(&user, "id = ?", auth.AuthorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: user not found", ErrForbidden)
		}
		return 0, err
	}
	if user.IsDeleted {
		return 0, fmt.Errorf("%w: inactive user", ErrForbidden)
	}
	if !credentialMatches(user.Credential, auth.Credential) {
		return 0, fmt.Errorf("%w: wrong credential", ErrForbidden)
	}
	return user.ID, nil
}

// RequireActive checks that id names an existing, non-deleted user. Used by
// token-authenticated read paths where the credential was already proven.
func (s *AuthService) RequireActive(id int64) (int64, error) {
	var user models.User
	if err := s.db.Select("id", "is_deleted").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: user not found", ErrForbidden)
		}
		return 0, err
	}
	if user.IsDeleted {
		return 0, fmt.Errorf("%w: inactive user", ErrForbidden)
	}
	return user.ID, nil
}

// Register creates a new user. The display name must be unique and
// non-empty, the gender one of the fixed values, and the birthdate a past
// YYYY-MM-DD date yielding a positive age. The new id is allocated inside
// the insert transaction; the credential is stored bcrypt-hashed.
func (s *AuthService) Register(name, gender, birthdate, credential string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: empty name", ErrInvalidInput)
	}
	if !models.ValidGender(gender) {
		return 0, fmt.Errorf("%w: invalid gender", ErrInvalidInput)
	}
	age, err := ageFromBirthdate(birthdate)
	if err != nil {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	var newID int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: name already taken", ErrInvalidInput)
		}

		if err := tx.Model(&models.User{}).Select("COALESCE(MAX(id), 0) + 1").Scan(&newID).Error; err != nil {
			return err
		}

		user := models.User{
			ID:         newID,
			Name:       name,
			Gender:     gender,
			Age:        age,
			Credential: string(hash),
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: name already taken", ErrInvalidInput)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newID, nil
}

// Login authenticates and issues a session token for read paths.
func (s *AuthService) Login(auth *AuthInfo) (int64, string, error) {
	id, err := s.Authenticate(auth)
	if err != nil {
		return 0, "", err
	}
	token, err := s.GenerateToken(id)
	if err != nil {
		return 0, "", err
	}
	return id, token, nil
}

// GenerateToken signs a 24h JWT carrying the user id.
func (s *AuthService) GenerateToken(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour * 24).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken parses a session token and returns the embedded user id.
func (s *AuthService) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrForbidden, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("%w: invalid token", ErrForbidden)
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: invalid token claims", ErrForbidden)
	}
	return int64(id), nil
}

// credentialMatches compares a stored credential with a presented one.
// Registration stores bcrypt hashes; bulk-loaded legacy rows carry the
// source dataset's opaque credential verbatim and compare by equality.
func credentialMatches(stored, presented string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(presented)) == nil
	}
	return stored == presented
}

func ageFromBirthdate(birthdate string) (int, error) {
	birth, err := time.Parse("2006-01-02", strings.TrimSpace(birthdate))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid birthdate", ErrInvalidInput)
	}
	now := time.Now()
	if birth.After(now) {
		return 0, fmt.Errorf("%w: birthdate in the future", ErrInvalidInput)
	}
	age := now.Year() - birth.Year()
	if now.YearDay() < birth.YearDay() {
		age--
	}
	if age <= 0 {
		return 0, fmt.Errorf("%w: invalid age", ErrInvalidInput)
	}
	return age, nil
}
