package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"talent-pipeline/internal/model"
)

// Query 描述候选人列表请求参数。
type Query struct {
	Page   int
	Limit  int
	Search string
	Status string
	JobID  string
}

// CandidatePage 表示一页候选人列表响应。
type CandidatePage struct {
	Results    []model.Candidate `json:"results"`
	TotalCount int64             `json:"totalCount"`
}

// NotificationList 表示通知列表响应。
type NotificationList struct {
	Results    []model.Notification `json:"results"`
	TotalCount int                  `json:"totalCount"`
}

// Client 封装对流水线服务的 HTTP 访问
// - 列表响应按查询键缓存，后到的响应覆盖先到的（last write wins）
// - 通知的已读与删除先改本地缓存再发请求，真实状态由下次刷新纠正
// - 不做请求取消与自动重试

type Client struct {
	baseURL     string
	client      *http.Client
	permissions []string
	debounce    *Debouncer

	mu         sync.Mutex
	pages      map[string]CandidatePage
	notes      map[string]NotificationList
}

// NewClient 创建客户端，permissions 为会话侧下发的权限键列表。
func NewClient(baseURL string, permissions []string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		client:      httpClient,
		permissions: permissions,
		debounce:    NewDebouncer(500 * time.Millisecond),
		pages:       make(map[string]CandidatePage),
		notes:       make(map[string]NotificationList),
	}
}

// ListCandidates 拉取候选人列表并以查询键缓存响应。
func (c *Client) ListCandidates(ctx context.Context, q Query) (CandidatePage, error) {
	var page CandidatePage
	if err := c.getJSON(ctx, "/api/candidates?"+q.encode(), &page); err != nil {
		return CandidatePage{}, err
	}

	c.mu.Lock()
	c.pages[q.key()] = page
	c.mu.Unlock()
	return page, nil
}

// CachedCandidates 返回查询键对应的最近一次响应。
func (c *Client) CachedCandidates(q Query) (CandidatePage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	page, ok := c.pages[q.key()]
	return page, ok
}

// SearchCandidates 防抖搜索：输入停止超过防抖窗口后才发出一次请求。
// 窗口内的连续调用只保留最后一次的查询条件。
func (c *Client) SearchCandidates(ctx context.Context, q Query, cb func(CandidatePage, error)) {
	c.debounce.Do(func() {
		cb(c.ListCandidates(ctx, q))
	})
}

// MoveCandidateStatus 请求粗粒度状态变更。
func (c *Client) MoveCandidateStatus(ctx context.Context, candidateID, status, idempotencyKey string, confirmed bool) error {
	body := map[string]any{
		"status":         status,
		"confirmed":      confirmed,
		"idempotencyKey": idempotencyKey,
	}
	return c.postJSON(ctx, "/api/candidates/"+url.PathEscape(candidateID)+"/status", body, nil)
}

// Notifications 拉取通知列表并缓存。
func (c *Client) Notifications(ctx context.Context, recruiterID string) (NotificationList, error) {
	var list NotificationList
	path := "/api/notifications?recruiterId=" + url.QueryEscape(recruiterID)
	if err := c.getJSON(ctx, path, &list); err != nil {
		return NotificationList{}, err
	}

	c.mu.Lock()
	c.notes[recruiterID] = list
	c.mu.Unlock()
	return list, nil
}

// CachedNotifications 返回本地缓存中的通知列表。
func (c *Client) CachedNotifications(recruiterID string) (NotificationList, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.notes[recruiterID]
	return list, ok
}

// MarkNotificationRead 先在本地缓存中置为已读，再发出请求。
// 请求失败时本地补丁保留，由下次 Notifications 刷新纠正。
func (c *Client) MarkNotificationRead(ctx context.Context, recruiterID, id string) error {
	c.mu.Lock()
	if list, ok := c.notes[recruiterID]; ok {
		for i := range list.Results {
			if list.Results[i].ID == id {
				list.Results[i].Read = true
				break
			}
		}
		c.notes[recruiterID] = list
	}
	c.mu.Unlock()

	return c.postJSON(ctx, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// DeleteNotification 先从本地缓存移除，再发出请求。
func (c *Client) DeleteNotification(ctx context.Context, recruiterID, id string) error {
	c.mu.Lock()
	if list, ok := c.notes[recruiterID]; ok {
		kept := list.Results[:0]
		for _, n := range list.Results {
			if n.ID != id {
				kept = append(kept, n)
			}
		}
		list.Results = kept
		list.TotalCount = len(kept)
		c.notes[recruiterID] = list
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/notifications/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	return c.do(req, nil)
}

// ClearNotifications 清空本地缓存并发出清空请求。
func (c *Client) ClearNotifications(ctx context.Context, recruiterID string) error {
	c.mu.Lock()
	delete(c.notes, recruiterID)
	c.mu.Unlock()

	return c.postJSON(ctx, "/api/notifications/clear?recruiterId="+url.QueryEscape(recruiterID), nil, nil)
}

// Close 释放挂起的防抖计时器。
func (c *Client) Close() {
	c.debounce.Stop()
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if len(c.permissions) > 0 {
		req.Header.Set("X-Recruiter-Permissions", strings.Join(c.permissions, ","))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http %s: %w", req.Method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		var msg struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &msg) == nil && msg.Error != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, msg.Error)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (q Query) encode() string {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.JobID != "" {
		v.Set("jobId", q.JobID)
	}
	return v.Encode()
}

// key 返回稳定的查询键，作为响应缓存的索引。
func (q Query) key() string {
	return q.encode()
}
