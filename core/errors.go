package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "NOT_READY"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "engine"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// 错误代码常量
const (
	ErrorCodeNotFound    = "NOT_FOUND"   // 资源不存在
	ErrorCodeNotReady    = "NOT_READY"   // 引擎尚未完成任何一次训练
	ErrorCodeUnavailable = "UNAVAILABLE" // 数据源不可用
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleEngine  = "engine"  // 推荐引擎
	ModuleProfile = "profile" // 用户画像
)

// 预定义错误
var (
	// ErrStoreNotFound 存储中不存在指定 key
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrEngineNotReady 引擎尚无可服务的模型快照。
	// 区别于"空结果"：服务层应据此返回明确的未就绪状态，而不是空列表。
	ErrEngineNotReady = NewDomainError(ModuleEngine, ErrorCodeNotReady, "engine: no trained snapshot yet")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotReady 检查错误是否为 NOT_READY
func IsNotReady(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotReady
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}
