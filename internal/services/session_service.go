// internal/services/session_service.go
package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Corphon/StoryPulseMCP/internal/errors"
	"github.com/Corphon/StoryPulseMCP/internal/models"
	"github.com/Corphon/StoryPulseMCP/internal/storage"
	"github.com/Corphon/StoryPulseMCP/internal/utils"
)

const resultsDir = "results"

// 项目id直接成为落盘文件名，只接受字母数字、连字符与下划线
var projectIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,50}$`)

// SessionService 按项目持久化分析结果
// 结果以JSON文件落盘，热点项目走内存缓存
type SessionService struct {
	storage *storage.FileStorage
	cache   *storage.ResultCache
	logger  *utils.Logger
}

// NewSessionService 创建会话服务
func NewSessionService(fs *storage.FileStorage) *SessionService {
	return &SessionService{
		storage: fs,
		cache:   storage.NewResultCache(200, 5*time.Minute),
		logger:  utils.GetLogger(),
	}
}

// SaveResult 追加一条分析记录到项目结果并落盘
func (s *SessionService) SaveResult(projectID, tool string, result interface{}) (*models.AnalysisRecord, error) {
	projectID = strings.TrimSpace(projectID)
	if err := validateProjectID(projectID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(tool) == "" {
		return nil, errors.NewValidationError("tool must not be empty", nil)
	}

	record := models.AnalysisRecord{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Tool:      tool,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}

	results := &models.ProjectResults{ProjectID: projectID}
	if s.storage.FileExists(resultsDir, resultsFile(projectID)) {
		if err := s.storage.LoadJSONFile(resultsDir, resultsFile(projectID), results); err != nil {
			return nil, errors.NewAnalysisError("failed to load existing project results", err)
		}
	}

	results.Records = append(results.Records, record)
	results.UpdatedAt = record.CreatedAt

	if err := s.storage.SaveJSONFile(resultsDir, resultsFile(projectID), results); err != nil {
		return nil, errors.NewAnalysisError("failed to persist project results", err)
	}
	s.cache.Set(projectID, results)

	s.logger.Debug("analysis result saved", map[string]interface{}{
		"project": projectID,
		"tool":    tool,
		"records": len(results.Records),
	})
	return &record, nil
}

// GetProjectResults 读取项目的全部分析记录
func (s *SessionService) GetProjectResults(projectID string) (*models.ProjectResults, error) {
	projectID = strings.TrimSpace(projectID)
	if err := validateProjectID(projectID); err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(projectID); ok {
		if results, ok := cached.(*models.ProjectResults); ok {
			return results, nil
		}
	}

	if !s.storage.FileExists(resultsDir, resultsFile(projectID)) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no results for project %q", projectID), nil)
	}

	results := &models.ProjectResults{}
	if err := s.storage.LoadJSONFile(resultsDir, resultsFile(projectID), results); err != nil {
		return nil, errors.NewAnalysisError("failed to load project results", err)
	}

	s.cache.Set(projectID, results)
	return results, nil
}

// ListProjects 列出已有结果的项目id
func (s *SessionService) ListProjects() ([]string, error) {
	files, err := s.storage.ListFiles(resultsDir)
	if err != nil {
		return nil, errors.NewAnalysisError("failed to list project results", err)
	}

	projects := make([]string, 0, len(files))
	for _, f := range files {
		projects = append(projects, strings.TrimSuffix(f, ".json"))
	}
	return projects, nil
}

func validateProjectID(projectID string) error {
	if projectID == "" {
		return errors.NewValidationError("project_id must not be empty", nil)
	}
	if !projectIDPattern.MatchString(projectID) {
		return errors.NewValidationError(
			fmt.Sprintf("project_id %q must match [a-zA-Z0-9_-]{1,50}", projectID), nil)
	}
	return nil
}

func resultsFile(projectID string) string {
	return projectID + ".json"
}
