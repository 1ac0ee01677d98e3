package common

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringArray 以 JSON 格式存储字符串切片。
type StringArray []string

// Value 实现 driver.Valuer 接口。
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口。
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			*a = []string{}
			return nil
		}
		if err := json.Unmarshal(v, (*[]string)(a)); err != nil {
			*a = []string{}
		}
		return nil
	case string:
		if v == "" {
			*a = []string{}
			return nil
		}
		if err := json.Unmarshal([]byte(v), (*[]string)(a)); err != nil {
			*a = []string{}
		}
		return nil
	default:
		return fmt.Errorf("unsupported type for StringArray: %T", value)
	}
}

// ToSlice 返回底层切片的副本。
func (a StringArray) ToSlice() []string {
	if len(a) == 0 {
		return []string{}
	}
	out := make([]string, len(a))
	copy(out, a)
	return out
}

// JSONMap 以 JSON 文本格式存储 map。nil map 落库为 NULL，空 map 落库为 "{}"，
// 因此字段"存在但为空"与"不存在"在数据库层可以区分开。
type JSONMap map[string]interface{}

// Value 实现 driver.Valuer 接口。
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	if len(m) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]interface{}(m))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口。存储内容解析失败时降级为空 map，
// 保证单个字段损坏不影响整行记录的读取。
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			*m = JSONMap{}
			return nil
		}
		if err := json.Unmarshal(v, (*map[string]interface{})(m)); err != nil {
			*m = JSONMap{}
		}
		return nil
	case string:
		if v == "" {
			*m = JSONMap{}
			return nil
		}
		if err := json.Unmarshal([]byte(v), (*map[string]interface{})(m)); err != nil {
			*m = JSONMap{}
		}
		return nil
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", value)
	}
}

// Merge 按 JSON merge-patch 语义把 patch 的顶层键写入副本并返回：
// patch 中出现的键覆盖原值，未出现的键保持不变。接收者本身不被修改。
func (m JSONMap) Merge(patch JSONMap) JSONMap {
	merged := make(JSONMap, len(m)+len(patch))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

// Clone 返回 map 的浅拷贝。
func (m JSONMap) Clone() JSONMap {
	if m == nil {
		return nil
	}
	out := make(JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// GetString 读取字符串值，键不存在或类型不符时返回空串。
func (m JSONMap) GetString(key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// SlotArray 是允许空洞的定长槽位数组：下标本身携带含义（第几路生成结果），
// nil 槽位表示"该路尚未产出或已失败"，与数组提前结束不同。
type SlotArray []*string

// NewSlotArray 用给定值构造槽位数组，空字符串视为空洞。
func NewSlotArray(values ...string) SlotArray {
	out := make(SlotArray, len(values))
	for i, v := range values {
		if v == "" {
			continue
		}
		val := v
		out[i] = &val
	}
	return out
}

// Clone 返回槽位数组的副本（槽位值也被复制）。
func (s SlotArray) Clone() SlotArray {
	if s == nil {
		return nil
	}
	out := make(SlotArray, len(s))
	for i, v := range s {
		if v == nil {
			continue
		}
		val := *v
		out[i] = &val
	}
	return out
}

// First 返回第一个非空槽位的值。
func (s SlotArray) First() string {
	for _, v := range s {
		if v != nil {
			return *v
		}
	}
	return ""
}

// IsZero 判断数组是否没有任何已填充的槽位。
func (s SlotArray) IsZero() bool {
	for _, v := range s {
		if v != nil {
			return false
		}
	}
	return true
}

// Response 是标准 API 响应结构。
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
	Time time.Time   `json:"time"`
}

// Meta 包含分页元数据。
type Meta struct {
	Page     int64 `json:"page"`
	PageSize int64 `json:"page_size"`
	Total    int64 `json:"total"`
}

// HasMore 判断当前页之后是否还有数据。
func (m *Meta) HasMore() bool {
	if m == nil {
		return false
	}
	return (m.Page-1)*m.PageSize+m.PageSize < m.Total
}

// BaseParams 包含通用的分页参数。
type BaseParams struct {
	PageSize int64 `json:"page_size" form:"page_size" query:"page_size"`
	Page     int64 `json:"page" form:"page" query:"page"`
}

// MediaFilter 表示历史记录列表的类型过滤。
type MediaFilter string

const (
	MediaFilterNone  MediaFilter = ""
	MediaFilterImage MediaFilter = "image"
	MediaFilterVideo MediaFilter = "video"
)
