// Package useragent 提供访问日志用的 UA 启发式分类（设备/浏览器/系统）。
// 匹配顺序敏感：更具体的标识必须先于会被其包含的通用标识检查，
// 例如平板先于 mobile、Edg 先于 Chrome。
package useragent

import "strings"

// Device 设备分类。
type Device string

const (
	DeviceMobile  Device = "mobile"
	DeviceTablet  Device = "tablet"
	DeviceDesktop Device = "desktop"
)

// Info UA 解析结果。
type Info struct {
	Device  Device `json:"device"`
	Browser string `json:"browser"`
	OS      string `json:"os"`
}

// browserRules 有序规则表：token → 名称。Edg/OPR/SamsungBrowser 的 UA 同时带有
// "Chrome"，Chrome 的 UA 带有 "Safari"，因此顺序不可调换。
var browserRules = []struct{ token, name string }{
	{"edg", "Edge"},
	{"opr", "Opera"},
	{"opera", "Opera"},
	{"samsungbrowser", "Samsung Internet"},
	{"firefox", "Firefox"},
	{"chrome", "Chrome"},
	{"crios", "Chrome"},
	{"safari", "Safari"},
	{"msie", "Internet Explorer"},
	{"trident", "Internet Explorer"},
}

// osRules 有序规则表："iphone os"/"cpu os" 先于 "mac os"，Android 先于 Linux。
var osRules = []struct{ token, name string }{
	{"iphone os", "iOS"},
	{"cpu os", "iOS"},
	{"ipad", "iPadOS"},
	{"android", "Android"},
	{"windows", "Windows"},
	{"mac os", "macOS"},
	{"cros", "ChromeOS"},
	{"linux", "Linux"},
}

// Parse 对原始 UA 做有序启发式分类。空串或未知 UA 归为 desktop/Unknown。
func Parse(raw string) Info {
	ua := strings.ToLower(raw)

	info := Info{
		Device:  classifyDevice(ua),
		Browser: "Unknown",
		OS:      "Unknown",
	}

	for _, r := range browserRules {
		if strings.Contains(ua, r.token) {
			info.Browser = r.name
			break
		}
	}

	for _, r := range osRules {
		if strings.Contains(ua, r.token) {
			info.OS = r.name
			break
		}
	}

	return info
}

// classifyDevice 平板标识必须先于通用 "mobile" 检查，否则 Android 平板会被误判为手机。
func classifyDevice(ua string) Device {
	switch {
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"):
		return DeviceTablet
	case strings.Contains(ua, "android") && !strings.Contains(ua, "mobile"):
		// Android 平板的 UA 带 android 但不带 mobile
		return DeviceTablet
	case strings.Contains(ua, "mobile"), strings.Contains(ua, "iphone"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}
