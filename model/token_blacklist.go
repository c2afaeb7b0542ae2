package model

import "time"

// RevocationReason explains why a token was blacklisted
type RevocationReason string

const (
	RevokedOnLogout   RevocationReason = "logout"
	RevokedOnRefresh  RevocationReason = "token_refresh"
	RevokedOnPassword RevocationReason = "password_change"
)

// JWTTokenBlacklist stores the JTI of revoked tokens until they would have expired anyway
type JWTTokenBlacklist struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Token     string           `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"` // JTI
	UserID    uint             `gorm:"index" json:"user_id"`
	Reason    RevocationReason `gorm:"type:varchar(50)" json:"reason"`
	ExpiresAt time.Time        `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time        `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for JWTTokenBlacklist
func (JWTTokenBlacklist) TableName() string {
	return "jwt_token_blacklist"
}
