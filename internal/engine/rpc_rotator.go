package engine

import (
	"net/url"
	"sync/atomic"
)

// rotator 多节点轮询游标
// 每次 next 原子地领取一个唯一序号，并发调用者不会拿到同一轮次
type rotator struct {
	cursor atomic.Uint64
}

// next returns the slot for the caller's turn over n entries. n must be > 0.
func (r *rotator) next(n int) int {
	turn := r.cursor.Add(1) - 1
	return int(turn % uint64(n))
}

func (r *rotator) reset() {
	r.cursor.Store(0)
}

// maskURL 掩码 URL（保护密钥）
// the path and query often carry provider API keys
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if len(raw) > 20 {
			return raw[:10] + "..." + raw[len(raw)-10:]
		}
		return raw
	}
	masked := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		if len(u.Path) > 12 {
			masked += u.Path[:8] + "..."
		} else {
			masked += u.Path
		}
	}
	if u.RawQuery != "" {
		masked += "?..."
	}
	return masked
}
