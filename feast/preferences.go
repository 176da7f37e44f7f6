// Package feast 把 Feast 特征库接入冷启动：用户的声明式偏好
// （liked_tags / preferred_categories）作为在线特征存放在 Feast，
// 由 PreferenceStore 按 user_id 实时拉取。
package feast

import (
	"context"
	"fmt"
	"strings"

	feastsdk "github.com/feast-dev/feast/sdk/go"

	"github.com/rushteam/newsrec/core"
)

// 偏好特征在 Feast 中的登记名。两个特征都是逗号分隔的字符串。
const (
	featureLikedTags           = "user_profile:liked_tags"
	featurePreferredCategories = "user_profile:preferred_categories"
	entityUserID               = "user_id"
)

// PreferenceStore 是基于官方 Feast Go SDK 的 core.PreferenceSource 实现。
// 特征缺失（用户未登记）时返回空偏好而非错误，冷启动会退化为纯热门。
type PreferenceStore struct {
	client  *feastsdk.GrpcClient
	project string
}

// NewPreferenceStore 连接 Feast Feature Server。port 为 0 时默认 6565。
func NewPreferenceStore(host string, port int, project string) (*PreferenceStore, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("connect feast %s:%d: %w", host, port, err)
	}
	return &PreferenceStore{client: client, project: project}, nil
}

var _ core.PreferenceSource = (*PreferenceStore)(nil)

// GetUserPreferences 在线拉取单个用户的偏好特征。
func (p *PreferenceStore) GetUserPreferences(ctx context.Context, userID int64) (*core.UserPreferences, error) {
	req := &feastsdk.OnlineFeaturesRequest{
		Features: []string{featureLikedTags, featurePreferredCategories},
		Entities: []feastsdk.Row{
			{entityUserID: feastsdk.Int64Val(userID)},
		},
		Project: p.project,
	}
	resp, err := p.client.GetOnlineFeatures(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("feast get online features: %w", err)
	}

	prefs := &core.UserPreferences{}
	rows := resp.Rows()
	if len(rows) == 0 {
		return prefs, nil
	}
	row := rows[0]
	if val, ok := row[featureLikedTags]; ok {
		prefs.LikedTags = splitCSV(val.GetStringVal())
	}
	if val, ok := row[featurePreferredCategories]; ok {
		prefs.PreferredCategories = splitCSV(val.GetStringVal())
	}
	return prefs, nil
}

func (p *PreferenceStore) Close() error {
	p.client = nil
	return nil
}

// splitCSV 拆分逗号分隔的特征值，去掉首尾空白与空项。
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
