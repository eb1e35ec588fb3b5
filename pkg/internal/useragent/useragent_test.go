package useragent_test

import (
	"testing"

	"github.com/yeisme/vaultshare/pkg/internal/useragent"
)

// TestParse 测试常见 UA 的设备/浏览器/系统分类。
func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		ua      string
		device  useragent.Device
		browser string
		os      string
	}{
		{
			name:    "windows chrome",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			device:  useragent.DeviceDesktop,
			browser: "Chrome",
			os:      "Windows",
		},
		{
			name:    "windows edge is not chrome",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
			device:  useragent.DeviceDesktop,
			browser: "Edge",
			os:      "Windows",
		},
		{
			name:    "mac safari is not chrome",
			ua:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
			device:  useragent.DeviceDesktop,
			browser: "Safari",
			os:      "macOS",
		},
		{
			name:    "iphone",
			ua:      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
			device:  useragent.DeviceMobile,
			browser: "Safari",
			os:      "iOS",
		},
		{
			name:    "ipad classified as tablet before mobile",
			ua:      "Mozilla/5.0 (iPad; CPU OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
			device:  useragent.DeviceTablet,
			browser: "Safari",
			os:      "iPadOS",
		},
		{
			name:    "android phone",
			ua:      "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36",
			device:  useragent.DeviceMobile,
			browser: "Chrome",
			os:      "Android",
		},
		{
			name:    "android tablet lacks mobile token",
			ua:      "Mozilla/5.0 (Linux; Android 14; SM-X910) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			device:  useragent.DeviceTablet,
			browser: "Chrome",
			os:      "Android",
		},
		{
			name:    "opera",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 OPR/111.0.0.0",
			device:  useragent.DeviceDesktop,
			browser: "Opera",
			os:      "Windows",
		},
		{
			name:    "linux firefox",
			ua:      "Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
			device:  useragent.DeviceDesktop,
			browser: "Firefox",
			os:      "Linux",
		},
		{
			name:    "empty ua",
			ua:      "",
			device:  useragent.DeviceDesktop,
			browser: "Unknown",
			os:      "Unknown",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := useragent.Parse(c.ua)
			if got.Device != c.device {
				t.Errorf("device = %q, want %q", got.Device, c.device)
			}

			if got.Browser != c.browser {
				t.Errorf("browser = %q, want %q", got.Browser, c.browser)
			}

			if got.OS != c.os {
				t.Errorf("os = %q, want %q", got.OS, c.os)
			}
		})
	}
}
