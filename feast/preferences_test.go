package feast

import (
	"context"
	"testing"
)

// 注意：需要连接真实的 Feast 服务器才能运行
func TestPreferenceStore_GetUserPreferences(t *testing.T) {
	t.Skip("需要连接真实的 Feast 服务器才能运行")

	store, err := NewPreferenceStore("localhost", 6565, "newsrec")
	if err != nil {
		t.Fatalf("创建客户端失败: %v", err)
	}
	defer store.Close()

	prefs, err := store.GetUserPreferences(context.Background(), 1001)
	if err != nil {
		t.Fatalf("获取偏好失败: %v", err)
	}
	t.Logf("liked_tags=%v preferred_categories=%v", prefs.LikedTags, prefs.PreferredCategories)
}

func TestSplitCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "sports", []string{"sports"}},
		{"multiple", "sports,tech,news", []string{"sports", "tech", "news"}},
		{"spaces", " sports , tech ", []string{"sports", "tech"}},
		{"empty items", "sports,,tech,", []string{"sports", "tech"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitCSV(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("splitCSV(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitCSV(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}
