package rule_test

import (
	"testing"

	"github.com/nidrive/nidrive/pkg/rule"
)

// folderForm 模拟文件夹创建请求的校验规则.
type folderForm struct {
	Name  string `rule:"required,min=1,max=255"`
	Limit int    `rule:"gte=1,lte=100"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	engine := rule.Engine()
	if engine == nil {
		t.Error("Engine() returned nil")
	}
}

// TestValidateStruct 测试 ValidateStruct 对有效和无效结构体的验证.
func TestValidateStruct(t *testing.T) {
	// 有效结构体
	valid := folderForm{Name: "Documents", Limit: 10}

	err := rule.ValidateStruct(valid)
	if err != nil {
		t.Errorf("Expected no error for valid struct, got %v", err)
	}

	// 无效结构体：缺少 Name
	invalid1 := folderForm{Name: "", Limit: 10}

	err = rule.ValidateStruct(invalid1)
	if err == nil {
		t.Error("Expected error for invalid struct (missing name), got nil")
	}

	// 无效结构体：Limit 超出范围
	invalid2 := folderForm{Name: "Work", Limit: 500}

	err = rule.ValidateStruct(invalid2)
	if err == nil {
		t.Error("Expected error for invalid struct (limit > 100), got nil")
	}
}

// TestValidateVar 测试 ValidateVar 对变量的验证.
func TestValidateVar(t *testing.T) {
	// 有效文件名
	err := rule.ValidateVar("report.pdf", "required,min=1")
	if err != nil {
		t.Errorf("Expected no error for valid filename, got %v", err)
	}

	// 空文件名
	err = rule.ValidateVar("", "required,min=1")
	if err == nil {
		t.Error("Expected error for empty filename, got nil")
	}

	// 有效限制
	err = rule.ValidateVar(25, "gte=1,lte=100")
	if err != nil {
		t.Errorf("Expected no error for valid limit, got %v", err)
	}

	// 无效限制
	err = rule.ValidateVar(0, "gte=1")
	if err == nil {
		t.Error("Expected error for invalid limit, got nil")
	}
}
