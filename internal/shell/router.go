package shell

import (
	"net/url"
	"strings"

	"snapopedia-cli/internal/session"
)

// Screen 逻辑页面
type Screen string

const (
	ScreenLanding Screen = "landing"
	ScreenUpload  Screen = "upload"
	ScreenCard    Screen = "card"
)

// Location 可直接跳转的地址
// 聊天抽屉是否打开也是地址的一部分，便于收藏和分享
type Location struct {
	Screen   Screen
	ChatOpen bool
}

// 常用地址
var (
	Home   = Location{Screen: ScreenLanding}
	Upload = Location{Screen: ScreenUpload}
	Card   = Location{Screen: ScreenCard}
	Chat   = Location{Screen: ScreenCard, ChatOpen: true}
)

func (l Location) String() string {
	switch l.Screen {
	case ScreenUpload:
		return "/upload"
	case ScreenCard:
		if l.ChatOpen {
			return "/card?chat=open"
		}
		return "/card"
	default:
		return "/"
	}
}

// Parse 解析地址，无法识别的地址回到首页
func Parse(raw string) Location {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Home
	}
	switch strings.TrimRight(u.Path, "/") {
	case "":
		return Home
	case "/upload":
		return Upload
	case "/card":
		return Location{Screen: ScreenCard, ChatOpen: u.Query().Get("chat") == "open"}
	default:
		return Home
	}
}

// Resolve 根据会话状态处理重定向：没有卡片时卡片页跳到拍照页
func Resolve(loc Location, s session.Session) Location {
	if loc.Screen == ScreenCard && !s.HasCard() {
		return Upload
	}
	return loc
}
