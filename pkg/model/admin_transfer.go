package model

import "time"

// AdminTransfer is a pending pool admin transfer.
type AdminTransfer struct {
	Pool         string    `gorm:"column:pool;primaryKey"`
	CurrentAdmin string    `gorm:"column:current_admin;not null"`
	NewAdmin     string    `gorm:"column:new_admin;not null"`
	LiveUntil    time.Time `gorm:"column:live_until;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AdminTransfer) TableName() string {
	return "admin_transfers"
}

// InstanceStateID is the only row instance_state ever holds.
const InstanceStateID = 1

// InstanceState carries the shared retention allowance.
type InstanceState struct {
	ID        int       `gorm:"column:id;primaryKey"`
	LiveUntil time.Time `gorm:"column:live_until;not null"`
}

func (InstanceState) TableName() string {
	return "instance_state"
}
