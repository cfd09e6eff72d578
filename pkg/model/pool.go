package model

import "time"

// Pool is an entry in the built-in pool registry.
type Pool struct {
	PoolID    string    `gorm:"column:pool_id;primaryKey"`
	Admin     string    `gorm:"column:admin;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Pool) TableName() string {
	return "pools"
}
