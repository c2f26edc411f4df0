package client

import (
	"context"
	"fmt"
)

// apiError 场馆返回的错误体
type apiError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// post 提交请求并解析结果，失败时带上场馆返回的错误信息
func (c *Client) post(ctx context.Context, limitKey, path string, body, out interface{}) error {
	if err := c.limits.Wait(ctx, limitKey); err != nil {
		return err
	}

	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(out).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return fmt.Errorf("请求 %s 失败: %w", path, err)
	}
	if resp.IsError() {
		if apiErr.Message != "" {
			return fmt.Errorf("请求 %s 被拒绝: HTTP %d: %s", path, resp.StatusCode(), apiErr.Message)
		}
		return fmt.Errorf("请求 %s 被拒绝: HTTP %d: %s", path, resp.StatusCode(), resp.String())
	}
	return nil
}

// get 查询请求
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&apiErr).
		Get(path)
	if err != nil {
		return fmt.Errorf("请求 %s 失败: %w", path, err)
	}
	if resp.IsError() {
		if apiErr.Message != "" {
			return fmt.Errorf("请求 %s 被拒绝: HTTP %d: %s", path, resp.StatusCode(), apiErr.Message)
		}
		return fmt.Errorf("请求 %s 被拒绝: HTTP %d: %s", path, resp.StatusCode(), resp.String())
	}
	return nil
}
