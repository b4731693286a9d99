// internal/genre/loader.go
package genre

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Corphon/StoryPulseMCP/internal/errors"
	"github.com/Corphon/StoryPulseMCP/internal/models"
	"github.com/Corphon/StoryPulseMCP/internal/utils"
)

// Library 类型模板库
// 启动时装载一次，之后只读，按小写 id 索引，所有引擎共享引用
type Library struct {
	templates map[string]*models.GenreTemplate
	logger    *utils.Logger
}

// NewLibrary 从目录装载模板库
// 目录缺失或为空时退回内置模板; 单个文件损坏只告警不中断
func NewLibrary(dir string) (*Library, error) {
	lib := &Library{
		templates: make(map[string]*models.GenreTemplate),
		logger:    utils.GetLogger(),
	}

	// 内置模板先入库，文件定义可覆盖同名项
	for _, tmpl := range builtinTemplates() {
		lib.templates[strings.ToLower(tmpl.ID)] = tmpl
	}

	if dir != "" {
		if err := lib.loadDir(dir); err != nil {
			return nil, err
		}
	}

	if len(lib.templates) == 0 {
		return nil, errors.NewLookupError("no genre templates available", nil)
	}

	lib.logger.Info("genre template library loaded", map[string]interface{}{
		"dir":    dir,
		"genres": len(lib.templates),
	})
	return lib, nil
}

// loadDir 装载目录下全部 yaml 模板文件
func (l *Library) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("genre template dir missing, using built-ins only", map[string]interface{}{
				"dir": dir,
			})
			return nil
		}
		return errors.NewLookupError(fmt.Sprintf("failed to read genre template dir %q", dir), err)
	}

	validate := validator.New()
	for _, entry := range entries {
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		tmpl, err := loadTemplateFile(filepath.Join(dir, name), validate)
		if err != nil {
			l.logger.Warn("skipping invalid genre template", map[string]interface{}{
				"file":  name,
				"error": err.Error(),
			})
			continue
		}
		l.templates[strings.ToLower(tmpl.ID)] = tmpl
	}
	return nil
}

// loadTemplateFile 解析并校验单个模板文件; id 缺省取文件名
func loadTemplateFile(path string, validate *validator.Validate) (*models.GenreTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var tmpl models.GenreTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	if tmpl.ID == "" {
		tmpl.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	tmpl.ID = strings.ToLower(tmpl.ID)
	if tmpl.Name == "" {
		tmpl.Name = tmpl.ID
	}

	if err := validate.Struct(&tmpl); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &tmpl, nil
}

// Resolve 按小写 id 解析模板
func (l *Library) Resolve(genre string) (*models.GenreTemplate, bool) {
	tmpl, ok := l.templates[strings.ToLower(strings.TrimSpace(genre))]
	return tmpl, ok
}

// List 返回全部模板，按 id 排序
func (l *Library) List() []*models.GenreTemplate {
	out := make([]*models.GenreTemplate, 0, len(l.templates))
	for _, tmpl := range l.templates {
		out = append(out, tmpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
