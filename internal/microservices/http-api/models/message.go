package models

// Message is the only persisted entity. The tenant is not an attribute:
// it selects the physical table the record lives in.
type Message struct {
	ID          string `json:"id" dynamodbav:"id" gorm:"column:id;primaryKey"`
	RoomID      string `json:"roomId" dynamodbav:"roomId,omitempty" gorm:"column:room_id"`
	Timestamp   int64  `json:"timestamp" dynamodbav:"timestamp" gorm:"column:timestamp;not null"`
	Sender      string `json:"sender" dynamodbav:"sender" gorm:"column:sender;not null"`
	Content     string `json:"content" dynamodbav:"content" gorm:"column:content;not null;type:text"`
	IsCorrected bool   `json:"isCorrected" dynamodbav:"isCorrected" gorm:"column:is_corrected;not null"`
}
