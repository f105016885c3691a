package web

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/safemap/internal/core/model"
)

// iconCache memoizes marker icon descriptors by requested color.
type iconCache struct {
	c *lru.Cache[string, Icon]
}

func newIconCache(size int) *iconCache {
	if size <= 0 {
		size = 64
	}
	c, _ := lru.New[string, Icon](size)
	return &iconCache{c: c}
}

func (ic *iconCache) Get(color string) Icon {
	if icon, ok := ic.c.Get(color); ok {
		return icon
	}
	norm := model.PinColor(color)
	icon := Icon{
		Color: norm,
		HTML:  fmt.Sprintf(`<span class="pin" style="background:%s"></span>`, norm),
	}
	ic.c.Add(color, icon)
	return icon
}

func (ic *iconCache) Len() int { return ic.c.Len() }
