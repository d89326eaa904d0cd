// Package github talks to the GitHub REST API: repository trees, branches,
// file commits, pull requests, and reviews.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"doc-translator/internal/logger"
	"doc-translator/internal/types"
)

// ErrBranchExists is returned by CreateBranch when the ref already exists.
// Callers may treat it as a resume rather than a failure.
var ErrBranchExists = errors.New("branch already exists")

// Client is an authenticated GitHub API client.
type Client struct {
	token      string
	baseURL    string
	rawBaseURL string
	client     *http.Client
}

// NewClient creates a GitHub client. The token may be empty for read-only
// access to public repositories.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    "https://api.github.com",
		rawBaseURL: "https://raw.githubusercontent.com",
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetBaseURLs overrides the API and raw-content endpoints. Used by tests.
func (c *Client) SetBaseURLs(api, raw string) {
	c.baseURL = strings.TrimSuffix(api, "/")
	c.rawBaseURL = strings.TrimSuffix(raw, "/")
}

func (c *Client) newRequest(ctx context.Context, method, apiURL string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func apiStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return types.NewAppErrorWithDetails(types.ErrGitHubAPI,
		fmt.Sprintf("GitHub API error (status %d)", resp.StatusCode),
		string(body), nil)
}

// ValidateToken checks the configured token against the authenticated-user
// endpoint.
func (c *Client) ValidateToken(ctx context.Context) error {
	if c.token == "" {
		return types.NewAppError(types.ErrConfig, "GitHub token is not configured", nil)
	}

	req, err := c.newRequest(ctx, "GET", c.baseURL+"/user", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to validate token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return types.NewAppError(types.ErrConfig, "GitHub token is invalid or expired", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return apiStatusError(resp)
	}
	return nil
}

// ListTree returns every blob path in the repository at the given branch,
// using the recursive git trees endpoint.
func (c *Client) ListTree(ctx context.Context, owner, repo, branch string) ([]string, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", c.baseURL, owner, repo, branch)

	req, err := c.newRequest(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list tree: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiStatusError(resp)
	}

	var tree struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to parse tree response: %w", err)
	}
	if tree.Truncated {
		logger.Warn("repository tree truncated by GitHub", logger.String("repo", owner+"/"+repo))
	}

	var paths []string
	for _, entry := range tree.Tree {
		if entry.Type == "blob" {
			paths = append(paths, entry.Path)
		}
	}
	return paths, nil
}

// PullRequest is the subset of a pull request the pipeline needs.
type PullRequest struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	State   string `json:"state"`
}

// ListOpenPullRequests pages through all open pull requests of a repository.
func (c *Client) ListOpenPullRequests(ctx context.Context, owner, repo string) ([]PullRequest, error) {
	var all []PullRequest
	for page := 1; ; page++ {
		apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls?state=open&per_page=100&page=%d",
			c.baseURL, owner, repo, page)

		req, err := c.newRequest(ctx, "GET", apiURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			err := apiStatusError(resp)
			resp.Body.Close()
			return nil, err
		}

		var batch []PullRequest
		if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to parse pull requests: %w", err)
		}
		resp.Body.Close()

		all = append(all, batch...)
		if len(batch) < 100 {
			return all, nil
		}
	}
}

// GetBranchSHA returns the commit SHA a branch points at.
func (c *Client) GetBranchSHA(ctx context.Context, owner, repo, branch string) (string, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/%s/git/refs/heads/%s", c.baseURL, owner, repo, branch)

	req, err := c.newRequest(ctx, "GET", apiURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get branch ref: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiStatusError(resp)
	}

	var ref struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return "", fmt.Errorf("failed to parse ref response: %w", err)
	}
	return ref.Object.SHA, nil
}

// CreateBranch creates a new branch at the given commit SHA. Returns
// ErrBranchExists when the ref is already present.
func (c *Client) CreateBranch(ctx context.Context, owner, repo, branch, sha string) error {
	body, err := json.Marshal(map[string]string{
		"ref": "refs/heads/" + branch,
		"sha": sha,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal ref request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/git/refs", c.baseURL, owner, repo)
	req, err := c.newRequest(ctx, "POST", apiURL, body)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to create branch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		respBody, _ := io.ReadAll(resp.Body)
		if strings.Contains(string(respBody), "already exists") {
			return ErrBranchExists
		}
		return types.NewAppErrorWithDetails(types.ErrGitHubAPI,
			"failed to create branch", string(respBody), nil)
	}
	if resp.StatusCode != http.StatusCreated {
		return apiStatusError(resp)
	}
	return nil
}

// PutFile creates or updates a file on a branch via the contents API. When
// the file already exists GitHub demands its blob SHA, so a 422 triggers a
// lookup followed by an update commit.
func (c *Client) PutFile(ctx context.Context, owner, repo, branch, path, commitMsg string, content []byte) error {
	requestBody := map[string]interface{}{
		"message": commitMsg,
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  branch,
	}

	status, respBody, err := c.putContents(ctx, owner, repo, path, requestBody)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		return nil
	}
	if status != http.StatusUnprocessableEntity {
		return types.NewAppErrorWithDetails(types.ErrGitHubAPI,
			fmt.Sprintf("GitHub API error (status %d)", status), string(respBody), nil)
	}

	// File exists on the branch already: fetch its SHA and commit an update.
	sha, err := c.fileSHA(ctx, owner, repo, branch, path)
	if err != nil {
		return fmt.Errorf("failed to resolve existing file SHA: %w", err)
	}
	requestBody["sha"] = sha

	status, respBody, err = c.putContents(ctx, owner, repo, path, requestBody)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return types.NewAppErrorWithDetails(types.ErrGitHubAPI,
			fmt.Sprintf("GitHub API error (status %d)", status), string(respBody), nil)
	}
	return nil
}

func (c *Client) putContents(ctx context.Context, owner, repo, path string, requestBody map[string]interface{}) (int, []byte, error) {
	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal contents request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, owner, repo, path)
	req, err := c.newRequest(ctx, "PUT", apiURL, jsonBody)
	if err != nil {
		return 0, nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to put file: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body, nil
}

func (c *Client) fileSHA(ctx context.Context, owner, repo, branch, path string) (string, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		c.baseURL, owner, repo, path, url.QueryEscape(branch))

	req, err := c.newRequest(ctx, "GET", apiURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get file info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiStatusError(resp)
	}

	var fileInfo struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&fileInfo); err != nil {
		return "", fmt.Errorf("failed to parse file info: %w", err)
	}
	return fileInfo.SHA, nil
}

// OpenPullRequest opens a draft pull request against the upstream repository.
// head is in "owner:branch" form when the branch lives on a fork.
func (c *Client) OpenPullRequest(ctx context.Context, owner, repo, title, body, head, base string) (*PullRequest, error) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"title": title,
		"body":  body,
		"head":  head,
		"base":  base,
		"draft": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pull request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls", c.baseURL, owner, repo)
	req, err := c.newRequest(ctx, "POST", apiURL, reqBody)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open pull request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, apiStatusError(resp)
	}

	var pr PullRequest
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to parse pull request response: %w", err)
	}
	logger.Info("opened pull request",
		logger.String("url", pr.HTMLURL), logger.Int("number", pr.Number))
	return &pr, nil
}

// ReviewComment is a single line comment attached to a review.
type ReviewComment struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Body string `json:"body"`
}

// PostReview submits a pull request review with an event of APPROVE,
// REQUEST_CHANGES, or COMMENT.
func (c *Client) PostReview(ctx context.Context, owner, repo string, number int, event, body string, comments []ReviewComment) error {
	payload := map[string]interface{}{
		"event": event,
		"body":  body,
	}
	if len(comments) > 0 {
		payload["comments"] = comments
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal review: %w", err)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews", c.baseURL, owner, repo, number)
	req, err := c.newRequest(ctx, "POST", apiURL, reqBody)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post review: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return apiStatusError(resp)
	}
	return nil
}

// PullRequestDiff fetches the unified diff of a pull request.
func (c *Client) PullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, number)

	req, err := c.newRequest(ctx, "GET", apiURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github.v3.diff")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch pull request diff: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiStatusError(resp)
	}

	diff, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read diff: %w", err)
	}
	return string(diff), nil
}

// RawContent downloads a file's raw content from a branch.
func (c *Client) RawContent(ctx context.Context, owner, repo, branch, path string) (string, error) {
	rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawBaseURL, owner, repo, branch, path)

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", types.NewAppErrorWithDetails(types.ErrFileNotFound,
			"file not found in repository", path, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apiStatusError(resp)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read file content: %w", err)
	}
	return string(content), nil
}
