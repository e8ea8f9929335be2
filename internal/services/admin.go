package services

import (
	"github.com/promptgate/promptgate/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AdminSet tracks which (user, guild) pairs hold elevated privilege.
type AdminSet struct {
	db *gorm.DB
}

func NewAdminSet(db *gorm.DB) *AdminSet {
	return &AdminSet{db: db}
}

// Add grants admin privilege to a user in a guild. Adding an existing pair
// is a no-op.
func (s *AdminSet) Add(userID, guildID, role string) error {
	if role == "" {
		role = "admin"
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "guild_id"}},
		DoNothing: true,
	}).Create(&models.AdminUser{UserID: userID, GuildID: guildID, Role: role}).Error
}

// IsAdmin reports whether the user holds admin privilege in the guild.
func (s *AdminSet) IsAdmin(userID, guildID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.AdminUser{}).
		Where("user_id = ? AND guild_id = ?", userID, guildID).
		Count(&count).Error
	return count > 0, err
}

// List returns a guild's admins.
func (s *AdminSet) List(guildID string) ([]models.AdminUser, error) {
	var admins []models.AdminUser
	err := s.db.Where("guild_id = ?", guildID).Order("created_at ASC").Find(&admins).Error
	return admins, err
}

// Remove revokes a user's admin privilege in a guild.
func (s *AdminSet) Remove(userID, guildID string) error {
	return s.db.Where("user_id = ? AND guild_id = ?", userID, guildID).
		Delete(&models.AdminUser{}).Error
}
