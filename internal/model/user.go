package model

import "github.com/caredraft/draft-sync-service/pkg/timex"

const TableNameUser = "user"

// User mapped from table <user>
type User struct {
	UID       int64      `gorm:"column:uid;primaryKey" json:"uid" form:"uid"`
	Email     string     `gorm:"column:email;not null;index:idx_email" json:"email" form:"email"`
	Nickname  string     `gorm:"column:nickname" json:"nickname" form:"nickname"`
	Avatar    string     `gorm:"column:avatar" json:"avatar" form:"avatar"`
	Password  string     `gorm:"column:password;not null" json:"-" form:"-"`
	Salt      string     `gorm:"column:salt" json:"-" form:"-"`
	IsDeleted bool       `gorm:"column:is_deleted;default:false" json:"isDeleted" form:"isDeleted"`
	CreatedAt timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName User's table name
func (*User) TableName() string {
	return TableNameUser
}
