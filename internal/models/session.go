// internal/models/session.go
package models

import "time"

// AnalysisRecord 表示某个项目下缓存的一次分析结果
type AnalysisRecord struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Tool      string    `json:"tool"`
	Result    any       `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectResults 表示一个项目的全部缓存结果
type ProjectResults struct {
	ProjectID string           `json:"project_id"`
	Records   []AnalysisRecord `json:"records"`
	UpdatedAt time.Time        `json:"updated_at"`
}
