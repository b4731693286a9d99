// internal/di/container.go
package di

import (
	"sync"
)

// Container 按名称持有分析引擎与基础设施服务
type Container struct {
	services map[string]interface{}
	mu       sync.RWMutex
}

// 进程级容器单例，cmd/server与cmd/mcp共享同一套服务注册
var (
	globalContainer *Container
	once            sync.Once
)

// NewContainer 创建一个空容器
func NewContainer() *Container {
	return &Container{
		services: make(map[string]interface{}),
	}
}

// GetContainer 返回全局容器实例
func GetContainer() *Container {
	once.Do(func() {
		globalContainer = NewContainer()
	})
	return globalContainer
}

// Register 注册服务实例，同名覆盖
func (c *Container) Register(name string, service interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
}

// Get 按名称取服务实例，未注册返回nil
func (c *Container) Get(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services[name]
}

// Has 检查服务是否已注册
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.services[name]
	return exists
}

// Clear 清空全部注册，主要用于测试
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services = make(map[string]interface{})
}

// GetNames 返回已注册服务的名称列表
func (c *Container) GetNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	return names
}
