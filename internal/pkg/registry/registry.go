package registry

import (
	"fmt"
	"sort"

	"wonderwomen/internal/store"
	baseModel "wonderwomen/pkg/model"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// ModuleContext 模块初始化所需的上下文
type ModuleContext struct {
	Store  *store.Store
	Router *gin.Engine
	IDs    baseModel.IDGenerator
	Clock  baseModel.Clock
}

// Module 模块接口
type Module interface {
	// Name 返回模块名称
	Name() string

	// Init 初始化模块（依赖注入、路由注册等）
	Init(ctx *ModuleContext) error

	// Priority 返回初始化优先级（数字越小越先初始化）
	Priority() int
}

// moduleRegistry 全局模块注册表
var moduleRegistry = make(map[string]Module)

// Register 注册模块，名称重复时 panic
func Register(module Module) {
	if _, dup := moduleRegistry[module.Name()]; dup {
		panic(fmt.Sprintf("module %s registered twice", module.Name()))
	}
	moduleRegistry[module.Name()] = module
}

// InitModules 按优先级初始化所有模块，优先级相同时按名称排序
func InitModules(ctx *ModuleContext) error {
	modules := lo.Values(moduleRegistry)
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Priority() != modules[j].Priority() {
			return modules[i].Priority() < modules[j].Priority()
		}
		return modules[i].Name() < modules[j].Name()
	})

	for _, module := range modules {
		if err := module.Init(ctx); err != nil {
			return fmt.Errorf("init module %s: %w", module.Name(), err)
		}
	}

	return nil
}
