package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"snapopedia-cli/internal/api"
)

// ErrImageGone 本地图片只在本次运行中保留
var ErrImageGone = errors.New("the photo is no longer available, upload it again to download")

// downloader 保存卡片展示图
type downloader struct {
	client *http.Client
	local  *api.ImageFile // 最近一次上传的原始图片，对应 blob: 地址
}

// save 把图片写入 path，返回写入的字节数
func (d downloader) save(ctx context.Context, src, path string) (int64, error) {
	r, err := d.open(ctx, src)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write %s: %w", path, err)
	}
	return n, nil
}

func (d downloader) open(ctx context.Context, src string) (io.ReadCloser, error) {
	if src == "" {
		return nil, ErrImageGone
	}
	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid image address %q: %w", src, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "blob":
		if d.local == nil || len(d.local.Data) == 0 {
			return nil, ErrImageGone
		}
		return io.NopCloser(bytes.NewReader(d.local.Data)), nil
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := d.client.Do(req)
		if err != nil {
			return nil, &api.TransportError{Err: err}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, &api.TransportError{StatusCode: resp.StatusCode}
		}
		return resp.Body, nil
	case "file":
		return os.Open(u.Path)
	case "":
		return os.Open(src)
	default:
		return nil, fmt.Errorf("cannot download %q", src)
	}
}
