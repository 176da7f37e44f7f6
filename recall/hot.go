package recall

import (
	"math"
	"sort"
	"time"

	"github.com/rushteam/newsrec/core"
)

// HotEntry 是热门榜条目。
type HotEntry struct {
	ArticleID int64
	Score     float64
}

// HotList 是带时间衰减的热门排行，作为训练的一部分整体重算（非独立组件）。
//
// 热度分数 = (浏览×1 + 点赞×3 + 评论×5) · exp(-发布天数/7)
// 只保留分数最高的前 size 条（默认 100）。
type HotList struct {
	entries []HotEntry
}

// ComputeHotList 对文章快照计算热门榜。公式确定，重算即整体替换。
func ComputeHotList(articles []*core.Article, size int, now time.Time) *HotList {
	if size <= 0 {
		size = 100
	}
	entries := make([]HotEntry, 0, len(articles))
	for _, a := range articles {
		engagement := float64(a.ViewCount) + float64(a.LikeCount)*3 + float64(a.CommentCount)*5
		days := int(now.Sub(a.CreatedAt).Hours() / 24)
		if days < 0 {
			days = 0
		}
		decay := math.Exp(-float64(days) / 7)
		entries = append(entries, HotEntry{ArticleID: a.ID, Score: engagement * decay})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ArticleID < entries[j].ArticleID
	})
	if len(entries) > size {
		entries = entries[:size]
	}
	return &HotList{entries: entries}
}

// Entries 返回按分数降序的全部条目。
func (h *HotList) Entries() []HotEntry {
	if h == nil {
		return nil
	}
	return h.entries
}

// Len 返回榜单长度。
func (h *HotList) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// Take 按榜单顺序取前 topN 条，跳过 exclude 中的文章。
func (h *HotList) Take(topN int, exclude map[int64]struct{}) []HotEntry {
	if h == nil || topN <= 0 {
		return nil
	}
	out := make([]HotEntry, 0, topN)
	for _, e := range h.entries {
		if _, skip := exclude[e.ArticleID]; skip {
			continue
		}
		out = append(out, e)
		if len(out) >= topN {
			break
		}
	}
	return out
}
