package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/promptgate/promptgate/internal/config"
	"github.com/promptgate/promptgate/internal/models"
	"github.com/promptgate/promptgate/internal/utils"
	"github.com/promptgate/promptgate/pkg/logger"
)

// AuthService authenticates dashboard operators.
type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{db: db, jwtConfig: jwtCfg}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token    string                `json:"token"`
	User     *models.DashboardUser `json:"user"`
	ExpireAt time.Time             `json:"expire_at"`
}

// Login authenticates an operator and returns a JWT token.
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	var user models.DashboardUser
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid username or password")
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, errors.New("account is disabled")
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, errors.New("invalid username or password")
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, s.jwtConfig.ExpireHour)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	s.db.Save(&user)

	return &LoginResponse{
		Token:    token,
		User:     &user,
		ExpireAt: now.Add(time.Duration(s.jwtConfig.ExpireHour) * time.Hour),
	}, nil
}

// GetUserByID returns an operator by ID.
func (s *AuthService) GetUserByID(id uint) (*models.DashboardUser, error) {
	var user models.DashboardUser
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateAdminIfNotExists seeds the default admin operator on first boot.
func (s *AuthService) CreateAdminIfNotExists() error {
	var count int64
	if err := s.db.Model(&models.DashboardUser{}).Where("username = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}

	user := models.DashboardUser{
		Username: "admin",
		Password: hash,
		Role:     "admin",
	}
	if err := s.db.Create(&user).Error; err != nil {
		return err
	}

	logger.Warn().Msg("created default admin user (username: admin, password: admin123), change the password immediately")
	return nil
}
