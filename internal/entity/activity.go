package entity

// Activity is one entry in a user's audit trail
type Activity struct {
	Id        int64  `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	UserId    string `json:"user_id" gorm:"column:user_id;index"`
	Type      string `json:"type" gorm:"column:type"`
	Detail    string `json:"detail" gorm:"column:detail"`
	CreatedAt int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
}

// TableName returns the table name for Activity
func (Activity) TableName() string {
	return "activities"
}
