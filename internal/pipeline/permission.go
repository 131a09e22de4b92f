package pipeline

import "strings"

// 权限键常量，与会话侧下发的 recruiterPermissions 列表对应。
const (
	PermMoveToInterview   = "move-to-interview"
	PermConvertToEmployee = "convert-to-employee"
)

// PermissionSet 表示招聘官的能力集合。
// 仅用于界面层的预检，服务端授权检查不以此为边界。
type PermissionSet map[string]struct{}

// NewPermissionSet 由字符串列表构造权限集合，忽略空白项。
func NewPermissionSet(keys []string) PermissionSet {
	set := make(PermissionSet, len(keys))
	for _, k := range keys {
		if trimmed := strings.ToLower(strings.TrimSpace(k)); trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return set
}

// Has 报告集合中是否包含指定权限键。
func (p PermissionSet) Has(key string) bool {
	_, ok := p[key]
	return ok
}
