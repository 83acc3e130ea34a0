package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// SnapshotPayload 自定义类型用于 GORM JSON 字段的自动扫描
type SnapshotPayload struct {
	*Snapshot
}

// Scan 实现 sql.Scanner 接口
func (p *SnapshotPayload) Scan(value interface{}) error {
	if value == nil {
		p.Snapshot = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported snapshot payload type %T", value)
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		p.Snapshot = nil
		return nil
	}
	var s Snapshot
	if err := json.Unmarshal(bytes, &s); err != nil {
		return err
	}
	p.Snapshot = &s
	return nil
}

// Value 实现 driver.Valuer 接口
func (p SnapshotPayload) Value() (driver.Value, error) {
	if p.Snapshot == nil {
		return nil, nil
	}
	return json.Marshal(p.Snapshot)
}

// SnapshotRecord 快照表，每次采集写入一行
type SnapshotRecord struct {
	ID          string          `gorm:"primaryKey;size:36"`
	GeneratedAt time.Time       `gorm:"index;not null"`
	Window      string          `gorm:"column:time_window;size:32"`
	TrackCount  int             `gorm:"not null;default:0"`
	Payload     SnapshotPayload `gorm:"type:longtext;not null"`
	CreatedAt   time.Time
}

// TableName 指定表名
func (SnapshotRecord) TableName() string {
	return "insights_snapshots"
}
